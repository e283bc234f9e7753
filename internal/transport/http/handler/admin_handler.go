package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-api/internal/domain"
	"saas-api/internal/feature/user"
	httpez "saas-api/internal/transport/http/ez"
)

// OrgStore 组织表读写
type OrgStore interface {
	Create(ctx context.Context, o *domain.Organization) error
	List(ctx context.Context, offset, limit int) ([]domain.Organization, int64, error)
}

// AdminHandler 管理端，分组已要求 SUPER_ADMIN
type AdminHandler struct {
	reg  *user.Registry
	orgs OrgStore
	log  *zap.Logger
}

func NewAdminHandler(reg *user.Registry, orgs OrgStore, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{reg: reg, orgs: orgs, log: log}
}

type createOrgIn struct {
	Name string `json:"name" binding:"required,max=150"`
}

type pageIn struct {
	TenantID string `form:"tenant_id"`
	Offset   int    `form:"offset,default=0"`
	Limit    int    `form:"limit,default=20"`
}

type orgList struct {
	Total int64                 `json:"total"`
	Items []domain.Organization `json:"items"`
}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	ez := httpez.New(admin)
	roles := []string{domain.RoleSuperAdmin.String()}

	httpez.RegisterAction(ez, httpez.Action[createOrgIn, *domain.Organization]{
		Method:  http.MethodPost,
		Path:    "/organizations",
		Binder:  httpez.BindJSON,
		Auth:    true,
		Roles:   roles,
		Handler: h.createOrg,
	})
	httpez.RegisterAction(ez, httpez.Action[pageIn, orgList]{
		Method:  http.MethodGet,
		Path:    "/organizations",
		Binder:  httpez.BindQuery,
		Auth:    true,
		Roles:   roles,
		Handler: h.listOrgs,
	})
	httpez.RegisterAction(ez, httpez.Action[pageIn, listOut]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  httpez.BindQuery,
		Auth:    true,
		Roles:   roles,
		Handler: h.listUsers,
	})
}

func (h *AdminHandler) createOrg(c *gin.Context, in *createOrgIn) (*domain.Organization, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, httpez.Rejected(map[string][]string{"name": {"name is required"}})
	}
	o := &domain.Organization{ID: uuid.NewString(), Name: name}
	if err := h.orgs.Create(c.Request.Context(), o); err != nil {
		h.log.Warn("create organization failed", zap.Error(err))
		return nil, httpez.Unavailable(err)
	}
	h.log.Info("organization created", zap.String("org_id", o.ID))
	return o, nil
}

func (h *AdminHandler) listOrgs(c *gin.Context, in *pageIn) (orgList, error) {
	limit := in.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, total, err := h.orgs.List(c.Request.Context(), max(0, in.Offset), limit)
	if err != nil {
		return orgList{}, httpez.Unavailable(err)
	}
	return orgList{Total: total, Items: items}, nil
}

func (h *AdminHandler) listUsers(c *gin.Context, in *pageIn) (listOut, error) {
	q := user.ListQuery{Offset: in.Offset, Limit: in.Limit}
	if t := strings.ToLower(strings.TrimSpace(in.TenantID)); t != "" {
		q.TenantID = &t
	}
	items, total, err := h.reg.ListUsers(c.Request.Context(), q)
	if err != nil {
		return listOut{}, mapErr(err)
	}
	return listOut{Total: total, Items: items}, nil
}
