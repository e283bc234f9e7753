package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"saas-api/internal/domain"
	"saas-api/internal/feature/user"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims 线上格式：sub / role / tenant_id + 标准字段
type Claims struct {
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTer 外部签发器：只接收 user.DeriveClaims 的结果，不接触用户实体
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (j *JWTer) Issue(c user.Claims) (string, error) {
	if len(j.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		Role:     c.Role.String(),
		TenantID: c.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse 校验签名、issuer、过期时间，还原成 user.Claims
func (j *JWTer) Parse(tokenStr string) (user.Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second), jwt.WithExpirationRequired())
	if err != nil {
		return user.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return user.Claims{}, ErrInvalidToken
	}
	role, ok := domain.ParseRole(c.Role)
	if !ok {
		return user.Claims{}, fmt.Errorf("%w: unknown role", ErrInvalidToken)
	}
	return user.Claims{Subject: c.Subject, Role: role, TenantID: c.TenantID}, nil
}
