package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"saas-api/internal/core/config"
	"saas-api/internal/core/server"
	mdw "saas-api/internal/transport/http/middleware"
)

// Options 两个引擎共用
type Options struct {
	Name   string
	Mode   string
	Limits config.Limits
}

func newEngine(l *zap.Logger, opt Options) *gin.Engine {
	r := server.NewRouter(l, server.Options{Name: opt.Name, Mode: opt.Mode})

	lim := opt.Limits
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(l),
		mdw.Metrics(),
		mdw.Recovery(l),
	)
	if lim.GlobalRPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(lim.GlobalRPS), lim.GlobalBurst))
	}
	r.Use(
		mdw.RateLimitPerIP(rate.Limit(lim.RPS), lim.Burst, 10*time.Minute),
		mdw.ConcurrencyLimit(lim.Concurrency),
		mdw.MaxBodyBytes(lim.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(lim.TimeoutSec)*time.Second),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   opt.Name,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
