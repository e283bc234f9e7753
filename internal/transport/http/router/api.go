package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAPIEngine 用户端 /api/v1；鉴权由各模块自己的分组处理（注册 / 登录是公开的）
func NewAPIEngine(l *zap.Logger, opt Options, mods *Modules) *gin.Engine {
	r := newEngine(l, opt)
	api := r.Group("/api/v1")
	mods.MountAllAPI(api)
	return r
}
