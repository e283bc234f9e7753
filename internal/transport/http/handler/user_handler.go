package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saas-api/internal/core/auth"
	"saas-api/internal/domain"
	"saas-api/internal/feature/user"
	httpez "saas-api/internal/transport/http/ez"
	mdw "saas-api/internal/transport/http/middleware"
)

// UserHandler 用户端：注册 / 登录 / me / 列表
type UserHandler struct {
	reg *user.Registry
	jwt *auth.JWTer
}

func NewUserHandler(reg *user.Registry, jwt *auth.JWTer) *UserHandler {
	return &UserHandler{reg: reg, jwt: jwt}
}

func (h *UserHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      *domain.User `json:"user"`
}

type listIn struct {
	TenantID string `form:"tenant_id"`
	Offset   int    `form:"offset,default=0"`
	Limit    int    `form:"limit,default=20"`
}

type listOut struct {
	Total int64                `json:"total"`
	Items []domain.UserSummary `json:"items"`
}

func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	public := httpez.New(api)

	// 匿名可注册 MEMBER；指定角色 / 租户时按 token 判断
	signup := api.Group("")
	signup.Use(mdw.OptionalJWT(h.jwt))
	httpez.RegisterAction(httpez.New(signup), httpez.Action[json.RawMessage, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/users",
		Binder:  httpez.BindRaw,
		Handler: h.register,
	})
	httpez.RegisterAction(public, httpez.Action[loginIn, loginOut]{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Binder:  httpez.BindJSON,
		Handler: h.login,
	})

	authed := api.Group("")
	authed.Use(mdw.AuthJWT(h.jwt))
	private := httpez.New(authed)

	httpez.RegisterAction(private, httpez.Action[struct{}, map[string]any]{
		Method:  http.MethodGet,
		Path:    "/me",
		Binder:  httpez.BindNone,
		Auth:    true,
		Handler: h.me,
	})
	httpez.RegisterAction(private, httpez.Action[listIn, listOut]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  httpez.BindQuery,
		Auth:    true,
		Handler: h.list,
	})
}

func (h *UserHandler) register(c *gin.Context, raw *json.RawMessage) (*domain.User, error) {
	in, err := user.ParseCreateInput(*raw)
	if err != nil {
		return nil, mapErr(err)
	}

	var caller *user.Claims
	if cl, ok := mdw.ClaimsFrom(c); ok {
		caller = &cl
	}
	u, err := h.authorizedRegister(c, caller, in)
	registrations.WithLabelValues(registrationResult(err)).Inc()
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (h *UserHandler) authorizedRegister(c *gin.Context, caller *user.Claims, in user.CreateUserInput) (*domain.User, error) {
	in, err := user.AuthorizeRegistration(caller, in)
	if err != nil {
		return nil, err
	}
	return h.reg.Register(c.Request.Context(), in)
}

func (h *UserHandler) login(c *gin.Context, in *loginIn) (loginOut, error) {
	u, err := h.reg.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		return loginOut{}, mapErr(err)
	}
	tok, err := h.jwt.Issue(user.DeriveClaims(u))
	if err != nil {
		return loginOut{}, httpez.Internal("issue token failed", err)
	}
	return loginOut{
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(h.jwt.TTL.Seconds()),
		User:      u,
	}, nil
}

func (h *UserHandler) me(c *gin.Context, _ *struct{}) (map[string]any, error) {
	cl, ok := mdw.ClaimsFrom(c)
	if !ok {
		return nil, httpez.Unauthorized("unauthorized")
	}
	return cl.AsMap(), nil
}

// list 非 SUPER_ADMIN 只能看自己租户
func (h *UserHandler) list(c *gin.Context, in *listIn) (listOut, error) {
	cl, ok := mdw.ClaimsFrom(c)
	if !ok {
		return listOut{}, httpez.Unauthorized("unauthorized")
	}

	q := user.ListQuery{Offset: in.Offset, Limit: in.Limit}
	if cl.Role == domain.RoleSuperAdmin {
		if t := strings.ToLower(strings.TrimSpace(in.TenantID)); t != "" {
			q.TenantID = &t
		}
	} else {
		if cl.TenantID == nil {
			return listOut{}, httpez.Forbidden("no tenant")
		}
		q.TenantID = cl.TenantID
	}

	items, total, err := h.reg.ListUsers(c.Request.Context(), q)
	if err != nil {
		return listOut{}, mapErr(err)
	}
	return listOut{Total: total, Items: items}, nil
}
