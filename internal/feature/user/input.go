package user

import (
	"bytes"
	"encoding/json"
	"errors"

	"saas-api/internal/domain"
)

var ErrMalformedBody = errors.New("request body must be a JSON object")

// ParseCreateInput 宽松解码：字段类型不对记成 string 违规，和其它规则一起返回；
// null 视为未传。只有整体不是 JSON 对象时才报错。
func ParseCreateInput(raw []byte) (CreateUserInput, error) {
	var in CreateUserInput
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return in, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return in, ErrMalformedBody
	}

	str := func(name string) (string, bool) {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return "", false
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			in.notString = append(in.notString, name)
			return "", false
		}
		return s, true
	}

	if s, ok := str("tenant_id"); ok {
		in.TenantID = &s
	}
	if s, ok := str("role"); ok {
		in.Role = &s
	}
	in.Name, _ = str("name")
	in.Email, _ = str("email")
	in.Password, _ = str("password")
	return in, nil
}

// AuthorizeRegistration 决定调用方能否创建请求里的角色和租户：
// 匿名或 MEMBER 只能建无租户的 MEMBER；ORG_ADMIN 只能在自己租户内建 ORG_ADMIN / MEMBER，
// 未指定租户时落到自己租户；SUPER_ADMIN 不受限。
func AuthorizeRegistration(caller *Claims, in CreateUserInput) (CreateUserInput, error) {
	in = normalizeInput(in)

	role := domain.DefaultRole
	if in.Role != nil {
		if r, ok := parseRole(*in.Role); ok {
			role = r
		}
	}

	if caller != nil {
		switch {
		case caller.Role == domain.RoleSuperAdmin:
			return in, nil
		case caller.Role == domain.RoleOrgAdmin && caller.TenantID != nil:
			if role == domain.RoleSuperAdmin {
				return in, ErrForbidden
			}
			if in.TenantID == nil {
				t := *caller.TenantID
				in.TenantID = &t
			} else if *in.TenantID != *caller.TenantID {
				return in, ErrForbidden
			}
			return in, nil
		}
	}

	if role == domain.RoleMember && in.TenantID == nil {
		return in, nil
	}
	if caller == nil {
		return in, ErrAuthRequired
	}
	return in, ErrForbidden
}
