package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"saas-api/internal/core/auth"
	"saas-api/internal/core/config"
	"saas-api/internal/core/credential"
	"saas-api/internal/core/database"
	"saas-api/internal/domain"
	"saas-api/internal/feature/user"
	"saas-api/internal/repo"
	"saas-api/internal/transport/http/handler"
	resp "saas-api/internal/transport/http/response"
	"saas-api/internal/transport/http/router"
)

type app struct {
	db    *gorm.DB
	api   *gin.Engine
	admin *gin.Engine
	jwt   *auth.JWTer
}

func newApp(t *testing.T) *app {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	jwter := &auth.JWTer{Secret: []byte("test"), Issuer: "saas-api", TTL: time.Hour}
	reg := user.NewRegistry(repo.NewUserRepo(db), credential.New(bcrypt.MinCost), log, user.Options{PersistTimeout: 2 * time.Second})

	mods := (&router.Modules{}).Register(
		handler.NewUserHandler(reg, jwter),
		handler.NewAdminHandler(reg, repo.NewOrgRepo(db), log),
	)
	opt := router.Options{
		Name:   "saas-api",
		Mode:   gin.TestMode,
		Limits: config.Limits{RPS: 1000, Burst: 1000, Concurrency: 16, MaxBodyMB: 1, TimeoutSec: 5},
	}
	return &app{
		db:    db,
		api:   router.NewAPIEngine(log, opt, mods),
		admin: router.NewAdminEngine(log, opt, jwter, mods),
		jwt:   jwter,
	}
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) resp.Resp {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var out resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (a *app) superAdminToken(t *testing.T) string {
	tok, err := a.jwt.Issue(user.Claims{Subject: uuid.NewString(), Role: domain.RoleSuperAdmin})
	require.NoError(t, err)
	return tok
}

func dataMap(t *testing.T, r resp.Resp) map[string]any {
	t.Helper()
	m, ok := r.Data.(map[string]any)
	require.True(t, ok, "data is %T", r.Data)
	return m
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	w := httptest.NewRecorder()
	a.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "saas-api", body["service"])
	_, err := time.Parse(time.RFC3339, body["timestamp"])
	require.NoError(t, err)
}

func TestRegisterLoginMe(t *testing.T) {
	a := newApp(t)

	out := call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name": "Ana", "email": "ana@x.com", "password": "s3cret!",
	})
	require.Equal(t, resp.CodeOK, out.Code)
	u := dataMap(t, out)
	require.NotEmpty(t, u["id"])
	require.Equal(t, "MEMBER", u["role"])
	require.Equal(t, true, u["is_active"])
	require.NotContains(t, u, "password")
	require.NotContains(t, u, "password_hash")
	require.NotContains(t, u, "credential")

	out = call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "ana@x.com", "password": "wrong-pass"})
	require.Equal(t, resp.CodeUnauthorized, out.Code)

	out = call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "ana@x.com", "password": "s3cret!"})
	require.Equal(t, resp.CodeOK, out.Code)
	token, _ := dataMap(t, out)["token"].(string)
	require.NotEmpty(t, token)

	out = call(t, a.api, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, resp.CodeOK, out.Code)
	me := dataMap(t, out)
	require.Len(t, me, 3)
	require.Equal(t, u["id"], me["sub"])
	require.Equal(t, "MEMBER", me["role"])
	require.Nil(t, me["tenant_id"])

	out = call(t, a.api, http.MethodGet, "/api/v1/me", "", nil)
	require.Equal(t, resp.CodeUnauthorized, out.Code)
}

func TestRegister_RejectsWithAllViolations(t *testing.T) {
	a := newApp(t)

	out := call(t, a.api, http.MethodPost, "/api/v1/users", a.superAdminToken(t), map[string]any{
		"name": "", "email": "not-an-email", "password": "123", "role": "OWNER", "tenant_id": "nope",
	})
	require.Equal(t, resp.CodeUnprocessable, out.Code)
	errs := dataMap(t, out)["errors"].(map[string]any)
	for _, f := range []string{"name", "email", "password", "role", "tenant_id"} {
		require.Contains(t, errs, f)
	}

	body := map[string]any{"name": "Ana", "email": "ana@x.com", "password": "s3cret!"}
	require.Equal(t, resp.CodeOK, call(t, a.api, http.MethodPost, "/api/v1/users", "", body).Code)

	out = call(t, a.api, http.MethodPost, "/api/v1/users", "", body)
	require.Equal(t, resp.CodeUnprocessable, out.Code)
	errs = dataMap(t, out)["errors"].(map[string]any)
	require.Equal(t, []any{"email has already been taken"}, errs["email"])

	var n int64
	require.NoError(t, a.db.Model(&domain.User{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestRegister_MalformedJSON(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.api.ServeHTTP(w, req)

	var out resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, resp.CodeBadRequest, out.Code)
}

func TestTenantScopedListing(t *testing.T) {
	a := newApp(t)
	root := a.superAdminToken(t)

	out := call(t, a.admin, http.MethodPost, "/admin/v1/organizations", root, map[string]any{"name": "Acme"})
	require.Equal(t, resp.CodeOK, out.Code)
	acme := dataMap(t, out)["id"].(string)

	out = call(t, a.admin, http.MethodPost, "/admin/v1/organizations", root, map[string]any{"name": "  "})
	require.Equal(t, resp.CodeUnprocessable, out.Code)

	reg := func(name, email string, tenant *string) {
		body := map[string]any{"name": name, "email": email, "password": "s3cret!"}
		if tenant != nil {
			body["tenant_id"] = *tenant
		}
		require.Equal(t, resp.CodeOK, call(t, a.api, http.MethodPost, "/api/v1/users", root, body).Code)
	}
	reg("Bo", "bo@acme.com", &acme)
	reg("Cy", "cy@acme.com", &acme)
	reg("Di", "di@solo.com", nil)

	missing := uuid.NewString()
	out = call(t, a.api, http.MethodPost, "/api/v1/users", root, map[string]any{
		"name": "Ed", "email": "ed@x.com", "password": "s3cret!", "tenant_id": missing,
	})
	require.Equal(t, resp.CodeUnprocessable, out.Code)
	require.Contains(t, dataMap(t, out)["errors"], "tenant_id")

	out = call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "bo@acme.com", "password": "s3cret!"})
	require.Equal(t, resp.CodeOK, out.Code)
	bo := dataMap(t, out)["token"].(string)

	out = call(t, a.api, http.MethodGet, "/api/v1/users?tenant_id="+missing, bo, nil)
	require.Equal(t, resp.CodeOK, out.Code)
	page := dataMap(t, out)
	require.EqualValues(t, 2, page["total"])
	items := page["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	require.Equal(t, "Bo", first["name"])
	require.Len(t, first, 5)

	out = call(t, a.admin, http.MethodGet, "/admin/v1/users", root, nil)
	require.Equal(t, resp.CodeOK, out.Code)
	require.EqualValues(t, 3, dataMap(t, out)["total"])

	out = call(t, a.admin, http.MethodGet, "/admin/v1/users?tenant_id="+acme, root, nil)
	require.EqualValues(t, 2, dataMap(t, out)["total"])

	out = call(t, a.admin, http.MethodGet, "/admin/v1/organizations", root, nil)
	require.EqualValues(t, 1, dataMap(t, out)["total"])

	// 普通成员进不了管理端
	out = call(t, a.admin, http.MethodGet, "/admin/v1/users", bo, nil)
	require.Equal(t, resp.CodeForbidden, out.Code)

	// 没有租户的普通成员不能列表
	out = call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "di@solo.com", "password": "s3cret!"})
	di := dataMap(t, out)["token"].(string)
	out = call(t, a.api, http.MethodGet, "/api/v1/users", di, nil)
	require.Equal(t, resp.CodeForbidden, out.Code)
}

func TestRegister_TypeMismatchReportedWithOtherFields(t *testing.T) {
	a := newApp(t)

	out := call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name": "", "email": "bad", "password": 12345,
	})
	require.Equal(t, resp.CodeUnprocessable, out.Code)
	errs := dataMap(t, out)["errors"].(map[string]any)
	require.Len(t, errs, 3)
	require.Equal(t, []any{"name is required"}, errs["name"])
	require.Equal(t, []any{"email must be a valid email address"}, errs["email"])
	require.Equal(t, []any{"password must be a string"}, errs["password"])
}

func TestRegister_RoleAndTenantNeedAuthority(t *testing.T) {
	a := newApp(t)
	root := a.superAdminToken(t)

	out := call(t, a.admin, http.MethodPost, "/admin/v1/organizations", root, map[string]any{"name": "Acme"})
	require.Equal(t, resp.CodeOK, out.Code)
	acme := dataMap(t, out)["id"].(string)
	out = call(t, a.admin, http.MethodPost, "/admin/v1/organizations", root, map[string]any{"name": "Globex"})
	globex := dataMap(t, out)["id"].(string)

	// 匿名不能给自己 SUPER_ADMIN / ORG_ADMIN / 租户
	out = call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name": "Eve", "email": "eve@x.com", "password": "123456", "role": "SUPER_ADMIN",
	})
	require.Equal(t, resp.CodeUnauthorized, out.Code)
	out = call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name": "Eve", "email": "eve@x.com", "password": "123456", "role": "ORG_ADMIN", "tenant_id": acme,
	})
	require.Equal(t, resp.CodeUnauthorized, out.Code)

	// 伪造 token 不会退化成匿名
	out = call(t, a.api, http.MethodPost, "/api/v1/users", "forged", map[string]any{
		"name": "Eve", "email": "eve@x.com", "password": "123456",
	})
	require.Equal(t, resp.CodeUnauthorized, out.Code)

	var n int64
	require.NoError(t, a.db.Model(&domain.User{}).Count(&n).Error)
	require.Zero(t, n)

	// SUPER_ADMIN 建一个 acme 的 ORG_ADMIN
	out = call(t, a.api, http.MethodPost, "/api/v1/users", root, map[string]any{
		"name": "Olga", "email": "olga@acme.com", "password": "s3cret!", "role": "ORG_ADMIN", "tenant_id": acme,
	})
	require.Equal(t, resp.CodeOK, out.Code)
	out = call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "olga@acme.com", "password": "s3cret!"})
	olga := dataMap(t, out)["token"].(string)

	// ORG_ADMIN 只能在自己租户内建人，且不能建 SUPER_ADMIN
	out = call(t, a.api, http.MethodPost, "/api/v1/users", olga, map[string]any{
		"name": "Mal", "email": "mal@x.com", "password": "s3cret!", "tenant_id": globex,
	})
	require.Equal(t, resp.CodeForbidden, out.Code)
	out = call(t, a.api, http.MethodPost, "/api/v1/users", olga, map[string]any{
		"name": "Mal", "email": "mal@x.com", "password": "s3cret!", "role": "SUPER_ADMIN",
	})
	require.Equal(t, resp.CodeForbidden, out.Code)

	out = call(t, a.api, http.MethodPost, "/api/v1/users", olga, map[string]any{
		"name": "Bo", "email": "bo@acme.com", "password": "s3cret!", "role": "ORG_ADMIN",
	})
	require.Equal(t, resp.CodeOK, out.Code)
	bo := dataMap(t, out)
	require.Equal(t, acme, bo["tenant_id"])
	require.Equal(t, "ORG_ADMIN", bo["role"])

	// 普通成员同样不能提权
	out = call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name": "Cy", "email": "cy@x.com", "password": "s3cret!",
	})
	require.Equal(t, resp.CodeOK, out.Code)
	require.Nil(t, dataMap(t, out)["tenant_id"])
	out = call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "cy@x.com", "password": "s3cret!"})
	cy := dataMap(t, out)["token"].(string)
	out = call(t, a.api, http.MethodPost, "/api/v1/users", cy, map[string]any{
		"name": "Dee", "email": "dee@x.com", "password": "s3cret!", "role": "ORG_ADMIN",
	})
	require.Equal(t, resp.CodeForbidden, out.Code)

	// 匿名注册出来的账号进不了管理端
	out = call(t, a.admin, http.MethodGet, "/admin/v1/users", cy, nil)
	require.Equal(t, resp.CodeForbidden, out.Code)
}

func TestStorageDown_Returns503(t *testing.T) {
	a := newApp(t)
	sqlDB, err := a.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	out := call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{
		"name": "Ana", "email": "ana@x.com", "password": "s3cret!",
	})
	require.Equal(t, resp.CodeServiceUnavailable, out.Code)
	require.Equal(t, resp.CodeMsgMap[resp.CodeServiceUnavailable], out.Msg)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	call(t, a.api, http.MethodPost, "/api/v1/users", "", map[string]any{"name": "Ana", "email": "ana@x.com", "password": "s3cret!"})

	w := httptest.NewRecorder()
	a.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `user_registrations_total{result="created"}`)
	require.Contains(t, w.Body.String(), "http_requests_total")
}
