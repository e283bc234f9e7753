package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"saas-api/internal/bootstrap"
	"saas-api/internal/core/server"
	"saas-api/internal/transport/http/handler"
	"saas-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, os.Getenv("CONFIG_PATH"), "saas-admin")
	if err != nil {
		zap.NewExample().Fatal("bootstrap failed", zap.Error(err))
	}
	defer app.Close()
	log, cfg := app.Log, app.Cfg

	mods := (&router.Modules{}).Register(handler.NewAdminHandler(app.Registry, app.Orgs, log))
	r := router.NewAdminEngine(log, app.RouterOptions(), app.JWT, mods)

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second, log)

	baseURL := server.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)
	if err := server.Serve(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("admin api stopped with error", zap.Error(err))
		return
	}
	log.Info("admin api stopped gracefully")
}
