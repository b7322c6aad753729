package repository

import (
	"context"

	"hradmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FormRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Form, error)
	FindByCode(ctx context.Context, code string) (*model.Form, error)
	ListActive(ctx context.Context) ([]model.Form, error)
	Create(ctx context.Context, form *model.Form) error
}

type formRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Form, error) {
	var form model.Form
	if err := GetDB(ctx, r.db).First(&form, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) FindByCode(ctx context.Context, code string) (*model.Form, error) {
	var form model.Form
	if err := GetDB(ctx, r.db).First(&form, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) ListActive(ctx context.Context) ([]model.Form, error) {
	var forms []model.Form
	if err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *formRepository) Create(ctx context.Context, form *model.Form) error {
	return GetDB(ctx, r.db).Create(form).Error
}
