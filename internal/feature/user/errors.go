package user

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUniqueConstraint 由存储层在唯一索引冲突时返回（email）
	ErrUniqueConstraint = errors.New("unique constraint violation")

	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrClaimsPrecondition 调用方传了未持久化的用户，属于编程错误，DeriveClaims 直接 panic
	ErrClaimsPrecondition = errors.New("claims: user has no id")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is inactive")

	// 注册时指定角色 / 租户的权限错误
	ErrAuthRequired = errors.New("authentication required to assign role or tenant")
	ErrForbidden    = errors.New("not allowed to assign this role or tenant")
)

// Violation 单条字段错误；Rule 与校验规则同名（required/max/email/unique…）
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationRejected 一次请求的完整违规集合，从不只带第一条。
type ValidationRejected struct {
	Violations map[string][]Violation
}

func (e *ValidationRejected) Error() string {
	return "validation rejected: " + strings.Join(e.Fields(), ", ")
}

func (e *ValidationRejected) Fields() []string {
	fs := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fs = append(fs, f)
	}
	sort.Strings(fs)
	return fs
}

func (e *ValidationRejected) Has(field, rule string) bool {
	for _, v := range e.Violations[field] {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Messages field -> 文案列表，给 HTTP 层直接输出
func (e *ValidationRejected) Messages() map[string][]string {
	out := make(map[string][]string, len(e.Violations))
	for f, vs := range e.Violations {
		for _, v := range vs {
			out[f] = append(out[f], v.Message)
		}
	}
	return out
}

// StorageUnavailable 基础设施故障或超时；整个注册可以安全重试。
type StorageUnavailable struct {
	Op  string
	Err error
}

func (e *StorageUnavailable) Error() string {
	return fmt.Sprintf("storage unavailable (%s): %v", e.Op, e.Err)
}
func (e *StorageUnavailable) Unwrap() error        { return e.Err }
func (e *StorageUnavailable) Is(target error) bool { return target == ErrStorageUnavailable }

func unavailable(op string, err error) error { return &StorageUnavailable{Op: op, Err: err} }
