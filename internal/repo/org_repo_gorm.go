package repo

import (
	"context"

	"gorm.io/gorm"

	"saas-api/internal/domain"
)

type OrgRepo struct{ db *gorm.DB }

func NewOrgRepo(db *gorm.DB) *OrgRepo { return &OrgRepo{db: db} }

func (r *OrgRepo) Create(ctx context.Context, o *domain.Organization) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrgRepo) List(ctx context.Context, offset, limit int) ([]domain.Organization, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Organization{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orgs []domain.Organization
	err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&orgs).Error
	return orgs, total, err
}
