package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// 模块实现其中一个或两个接口
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 可选：数值越小越先挂，默认 100
type prioritizer interface{ Priority() int }

// Modules 由 main 组装后交给引擎，不走包级全局变量
type Modules struct {
	mu    sync.RWMutex
	api   []APIModule
	admin []AdminModule
}

// Register 按类型断言分发到 API / Admin 列表
func (m *Modules) Register(mods ...any) *Modules {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mod := range mods {
		if x, ok := mod.(APIModule); ok {
			m.api = append(m.api, x)
		}
		if x, ok := mod.(AdminModule); ok {
			m.admin = append(m.admin, x)
		}
	}
	return m
}

func (m *Modules) MountAllAPI(api *gin.RouterGroup) {
	m.mu.RLock()
	mods := append([]APIModule(nil), m.api...)
	m.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, x := range mods {
		x.MountAPI(api)
	}
}

func (m *Modules) MountAllAdmin(admin *gin.RouterGroup) {
	m.mu.RLock()
	mods := append([]AdminModule(nil), m.admin...)
	m.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, x := range mods {
		x.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
