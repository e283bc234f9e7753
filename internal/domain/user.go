package domain

import (
	"time"
)

// User 平台账号。Credential 只保存派生后的密文，任何输出都不带它。
type User struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID   *string   `gorm:"type:varchar(36);index" json:"tenant_id"` // nil = 平台级账号
	Role       Role      `gorm:"type:varchar(16);not null" json:"role"`
	Name       string    `gorm:"size:150;not null" json:"name"`
	Email      string    `gorm:"uniqueIndex:uq_users_email;size:180;not null" json:"email"`
	Credential string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserSummary 列表投影，只暴露这五个字段
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsActive: u.IsActive}
}
