// Package bootstrap 组装两个入口共用的依赖：配置、日志、数据库、缓存、tracing、Registry。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"saas-api/internal/core/auth"
	"saas-api/internal/core/cache"
	"saas-api/internal/core/config"
	"saas-api/internal/core/credential"
	"saas-api/internal/core/database"
	"saas-api/internal/core/logger"
	"saas-api/internal/core/telemetry"
	"saas-api/internal/feature/user"
	"saas-api/internal/repo"
	"saas-api/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Cache    *cache.Cache // redis.enabled=false 时为 nil
	JWT      *auth.JWTer
	Registry *user.Registry
	Orgs     *repo.OrgRepo

	closers []func()
}

// New 按顺序初始化；任何一步失败都会回收已创建的资源
func New(ctx context.Context, cfgPath, service string) (_ *App, err error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, syncLog := logger.New(logger.FromConfig(cfg.Log))
	a := &App{Cfg: cfg, Log: log.With(zap.String("service", service))}
	a.closers = append(a.closers, syncLog, logger.RedirectStdLog(log, zapcore.InfoLevel))
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	tcfg := cfg.Telemetry
	if tcfg.ServiceName == "" {
		tcfg.ServiceName = service
	}
	shutdownTrace, err := telemetry.Setup(ctx, tcfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTrace(sctx)
	})

	if a.DB, err = openDB(cfg); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if sqlDB, e := a.DB.DB(); e == nil {
			_ = sqlDB.Close()
		}
	})
	a.Log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err = database.Migrate(a.DB); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		a.Log.Info("automigrate done")
	}

	users := repo.NewUserRepo(a.DB)
	if cfg.Redis.Enabled {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		perr := c.Ping(pctx)
		cancel()
		if perr != nil {
			// 缓存只是加速，连不上就退回直接查库
			a.Log.Warn("redis unavailable, organization cache disabled", zap.Error(perr))
			_ = c.Close()
		} else {
			a.Cache = c
			a.closers = append(a.closers, func() { _ = c.Close() })
			users = users.WithOrgCache(c, cfg.Redis.TTL())
		}
	}

	a.JWT = &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}
	a.Registry = user.NewRegistry(users, credential.New(cfg.Credential.BcryptCost), a.Log, user.Options{
		PersistTimeout: cfg.Registry.PersistTimeout(),
	})
	a.Orgs = repo.NewOrgRepo(a.DB)
	return a, nil
}

// RouterOptions 引擎参数；prod 下 gin 用 release 模式
func (a *App) RouterOptions() router.Options {
	mode := gin.DebugMode
	if a.Cfg.App.Env == "prod" || a.Cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	return router.Options{Name: a.Cfg.App.Name, Mode: mode, Limits: a.Cfg.Limits}
}

// Close 逆序释放
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required (APP_DB_DSN)")
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	return db, nil
}
