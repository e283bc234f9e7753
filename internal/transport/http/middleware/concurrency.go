package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "saas-api/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时处理的请求数。注册 / 登录里的 bcrypt 是 CPU 密集操作，靠它兜住
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	if max <= 0 {
		max = 1
	}
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServiceUnavailable, "server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
