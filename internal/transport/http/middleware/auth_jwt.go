package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saas-api/internal/core/auth"
	"saas-api/internal/domain"
	"saas-api/internal/feature/user"
	resp "saas-api/internal/transport/http/response"
)

const (
	KeyUserID   = "userId"
	KeyRole     = "role"
	KeyTenantID = "tenantId"
	KeyClaims   = "claims"
)

// AuthJWT 校验 Bearer token 并把 claims 写进上下文；roles 非空时限定角色
func AuthJWT(j *auth.JWTer, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if len(roles) > 0 && !hasRole(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.Subject)
		c.Set(KeyRole, claims.Role.String())
		if claims.TenantID != nil {
			c.Set(KeyTenantID, *claims.TenantID)
		}
		c.Next()
	}
}

// OptionalJWT 没带 token 直接放行；带了就必须有效
func OptionalJWT(j *auth.JWTer) gin.HandlerFunc {
	required := AuthJWT(j)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// ClaimsFrom 取 AuthJWT 写入的 claims
func ClaimsFrom(c *gin.Context) (user.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return user.Claims{}, false
	}
	cl, ok := v.(user.Claims)
	return cl, ok
}

func hasRole(roles []domain.Role, r domain.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
