package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saas-api/internal/core/auth"
	"saas-api/internal/domain"
	mdw "saas-api/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 /admin/v1，整组要求 SUPER_ADMIN
func NewAdminEngine(l *zap.Logger, opt Options, jwter *auth.JWTer, mods *Modules) *gin.Engine {
	r := newEngine(l, opt)
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleSuperAdmin))
	mods.MountAllAdmin(admin)
	return r
}
