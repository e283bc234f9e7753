package user

import "saas-api/internal/domain"

// Claims 签发 token 所需的最小身份信息。故意不含 name / email / 凭据。
type Claims struct {
	Subject  string      `json:"sub"`
	Role     domain.Role `json:"role"`
	TenantID *string     `json:"tenant_id"`
}

// DeriveClaims 纯函数。u 为 nil 或没有 ID 时 panic(ErrClaimsPrecondition)。
func DeriveClaims(u *domain.User) Claims {
	if u == nil || u.ID == "" {
		panic(ErrClaimsPrecondition)
	}
	c := Claims{Subject: u.ID, Role: u.Role}
	if u.TenantID != nil {
		t := *u.TenantID
		c.TenantID = &t
	}
	return c
}

// AsMap 交给外部签发器的 claims map，键固定为 sub / role / tenant_id
func (c Claims) AsMap() map[string]any {
	var tenant any
	if c.TenantID != nil {
		tenant = *c.TenantID
	}
	return map[string]any{
		"sub":       c.Subject,
		"role":      c.Role.String(),
		"tenant_id": tenant,
	}
}
