package user

// CreateUserInput 注册入参。可选字段为 nil 或空串都视为未传。
type CreateUserInput struct {
	TenantID *string `json:"tenant_id" validate:"omitempty,uuid"`
	Role     *string `json:"role"`
	Name     string  `json:"name"      validate:"required,max=150"`
	Email    string  `json:"email"     validate:"required,email,max=180"`
	Password string  `json:"password"`

	// 类型不是字符串的字段，由 ParseCreateInput 填充
	notString []string
}

// ListQuery 列表筛选；TenantID 为 nil 表示不过滤
type ListQuery struct {
	TenantID *string
	Offset   int
	Limit    int
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (q ListQuery) normalized() ListQuery {
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 || q.Limit > maxListLimit {
		q.Limit = defaultListLimit
	}
	return q
}
