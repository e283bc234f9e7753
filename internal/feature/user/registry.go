package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"saas-api/internal/core/credential"
	"saas-api/internal/domain"
)

// Storage 是注册依赖的持久化边界。email 唯一性由存储层的唯一索引保证，
// InsertUser 冲突时必须返回 ErrUniqueConstraint。
type Storage interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	OrganizationExists(ctx context.Context, id string) (bool, error)
	InsertUser(ctx context.Context, u *domain.User) error
	ListUsers(ctx context.Context, q ListQuery) ([]domain.UserSummary, int64, error)
}

type Options struct {
	// 每次存储调用的超时；<=0 使用默认 5s
	PersistTimeout time.Duration
	// 默认 uuid.NewString
	IDGen func() string
}

const defaultPersistTimeout = 5 * time.Second

// Registry 无内部可变状态，可在多个 goroutine / 多实例间并发使用。
type Registry struct {
	store    Storage
	policy   credential.Policy
	log      *zap.Logger
	validate *validator.Validate
	timeout  time.Duration
	newID    func() string
}

func NewRegistry(store Storage, policy credential.Policy, log *zap.Logger, opts Options) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.IDGen == nil {
		opts.IDGen = uuid.NewString
	}
	return &Registry{
		store:    store,
		policy:   policy,
		log:      log,
		validate: newValidator(),
		timeout:  opts.PersistTimeout,
		newID:    opts.IDGen,
	}
}

func (r *Registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Register 校验 -> 派生凭据 -> 写库。
// 返回 *ValidationRejected（全部违规）、*StorageUnavailable 或创建好的用户。
func (r *Registry) Register(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in = normalizeInput(in)

	rej := rejection{}
	r.checkSyntax(&in, rej)
	if err := r.checkReferences(ctx, &in, rej); err != nil {
		return nil, err
	}
	if err := rej.err(); err != nil {
		return nil, err
	}

	role := domain.DefaultRole
	if in.Role != nil {
		role, _ = parseRole(*in.Role)
	}

	// 慢操作，放在任何存储调用之外
	cred, err := r.policy.Set(in.Password)
	if err != nil {
		// checkSyntax 已经拦过，这里只剩随机源故障
		if errors.Is(err, credential.ErrInvalidSecret) {
			rej.add("password", "invalid")
			return nil, rej.err()
		}
		return nil, err
	}

	u := &domain.User{
		ID:         r.newID(),
		TenantID:   in.TenantID,
		Role:       role,
		Name:       in.Name,
		Email:      in.Email,
		Credential: cred,
		IsActive:   true,
	}

	insCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.store.InsertUser(insCtx, u); err != nil {
		if errors.Is(err, ErrUniqueConstraint) {
			// 并发注册撞唯一索引，和预检查同样处理
			rej.add("email", "unique")
			return nil, rej.err()
		}
		r.log.Warn("insert user failed", zap.String("user_id", u.ID), zap.Error(err))
		return nil, unavailable("insert user", err)
	}

	r.log.Info("user registered",
		zap.String("user_id", u.ID),
		zap.Stringer("role", u.Role),
		zap.Stringp("tenant_id", u.TenantID),
	)
	return u, nil
}

// checkReferences 只对语法已通过的字段查库；两次查询并发执行。
func (r *Registry) checkReferences(ctx context.Context, in *CreateUserInput, rej rejection) error {
	checkOrg := in.TenantID != nil && !rej.has("tenant_id")
	checkEmail := !rej.has("email")
	if !checkOrg && !checkEmail {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var orgMissing, emailTaken bool
	g, gctx := errgroup.WithContext(ctx)
	if checkOrg {
		g.Go(func() error {
			ok, err := r.store.OrganizationExists(gctx, *in.TenantID)
			if err != nil {
				return unavailable("organization exists", err)
			}
			orgMissing = !ok
			return nil
		})
	}
	if checkEmail {
		g.Go(func() error {
			u, err := r.store.FindUserByEmail(gctx, in.Email)
			if err != nil {
				return unavailable("find user by email", err)
			}
			emailTaken = u != nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Warn("registration lookup failed", zap.Error(err))
		return err
	}

	if orgMissing {
		rej.add("tenant_id", "exists")
	}
	if emailTaken {
		rej.add("email", "unique")
	}
	return nil
}

// Authenticate 登录校验；未知邮箱和密码错误返回同一个错误。
func (r *Registry) Authenticate(ctx context.Context, email, secret string) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := r.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, unavailable("find user by email", err)
	}
	if u == nil || !credential.Verify(secret, u.Credential) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// ListUsers 列表投影，不会带出凭据
func (r *Registry) ListUsers(ctx context.Context, q ListQuery) ([]domain.UserSummary, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	items, total, err := r.store.ListUsers(ctx, q.normalized())
	if err != nil {
		return nil, 0, unavailable("list users", err)
	}
	return items, total, nil
}

func normalizeInput(in CreateUserInput) CreateUserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.TenantID != nil {
		t := strings.ToLower(strings.TrimSpace(*in.TenantID))
		if t == "" {
			in.TenantID = nil
		} else {
			in.TenantID = &t
		}
	}
	if in.Role != nil && strings.TrimSpace(*in.Role) == "" {
		in.Role = nil
	}
	return in
}

func parseRole(s string) (domain.Role, bool) { return domain.ParseRole(strings.TrimSpace(s)) }
