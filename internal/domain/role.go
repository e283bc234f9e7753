package domain

import (
	"database/sql/driver"
	"fmt"
)

// Role 是封闭枚举；零值非法，只能通过 ParseRole 从字符串得到。
type Role uint8

const (
	roleInvalid Role = iota
	RoleSuperAdmin
	RoleOrgAdmin
	RoleMember
)

var roleNames = [...]string{
	RoleSuperAdmin: "SUPER_ADMIN",
	RoleOrgAdmin:   "ORG_ADMIN",
	RoleMember:     "MEMBER",
}

// DefaultRole 注册时未指定 role 使用
const DefaultRole = RoleMember

// Roles 按声明顺序返回全部合法角色
func Roles() []Role { return []Role{RoleSuperAdmin, RoleOrgAdmin, RoleMember} }

func ParseRole(s string) (Role, bool) {
	for _, r := range Roles() {
		if roleNames[r] == s {
			return r, true
		}
	}
	return roleInvalid, false
}

func (r Role) Valid() bool { return r >= RoleSuperAdmin && r <= RoleMember }

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return roleNames[r]
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(roleNames[r]), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, ok := ParseRole(string(b))
	if !ok {
		return fmt.Errorf("unknown role %q", string(b))
	}
	*r = v
	return nil
}

// GormDataType 建表时按字符串列处理
func (Role) GormDataType() string { return "string" }

// Value 写库：非法角色直接拒绝
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return roleNames[r], nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
}
