package admin

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var out models.AdminUser
	if err := r.DB(ctx).Where("username = ?", username).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.AdminUser, error) {
	return repo.FindByID[models.AdminUser](r.DB(ctx), id)
}

func (r *Repository) Create(ctx context.Context, user *models.AdminUser) error {
	return r.DB(ctx).Create(user).Error
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.DB(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("last_login_at", at).Error
}
