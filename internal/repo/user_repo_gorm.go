package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"saas-api/internal/core/cache"
	"saas-api/internal/domain"
	"saas-api/internal/feature/user"
)

var _ user.Storage = (*UserRepo)(nil)

type UserRepo struct {
	db     *gorm.DB
	cache  *cache.Cache
	orgTTL time.Duration
}

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// WithOrgCache 缓存“组织存在”的肯定结果；组织没有删除路径，所以不会过期失真
func (r *UserRepo) WithOrgCache(c *cache.Cache, ttl time.Duration) *UserRepo {
	r.cache, r.orgTTL = c, ttl
	return r
}

func (r *UserRepo) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var errOrgAbsent = errors.New("organization absent")

func (r *UserRepo) OrganizationExists(ctx context.Context, id string) (bool, error) {
	if r.cache == nil {
		return organizationExists(ctx, r.db, id)
	}
	_, err := cache.GetOrLoadJSON(r.cache, ctx, "org:exists:"+id, r.orgTTL, func(ctx context.Context) (*bool, error) {
		ok, err := organizationExists(ctx, r.db, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errOrgAbsent // 否定结果不缓存
		}
		return &ok, nil
	})
	switch {
	case errors.Is(err, errOrgAbsent):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (r *UserRepo) InsertUser(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if isDupKey(err) {
		return fmt.Errorf("insert user: %w", user.ErrUniqueConstraint)
	}
	return err
}

func (r *UserRepo) ListUsers(ctx context.Context, q user.ListQuery) ([]domain.UserSummary, int64, error) {
	scoped := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&domain.User{})
		if q.TenantID != nil {
			tx = tx.Where("tenant_id = ?", *q.TenantID)
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.UserSummary, 0, q.Limit)
	err := scoped().
		Select("id", "name", "email", "role", "is_active").
		Order("name ASC").Order("id ASC").
		Offset(q.Offset).Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func organizationExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Organization{}).Where("id = ?", id).Limit(1).Count(&n).Error
	return n > 0, err
}
