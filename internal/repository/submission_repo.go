package repository

import (
	"context"

	"hradmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	Status string
	FlowID *uuid.UUID
	Page   int
	Limit  int
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.FormSubmission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FormSubmission, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.FormSubmission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]model.FormSubmission, int64, error)
	Update(ctx context.Context, submission *model.FormSubmission) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *model.FormSubmission) error {
	return GetDB(ctx, r.db).Create(submission).Error
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FormSubmission, error) {
	var submission model.FormSubmission
	if err := GetDB(ctx, r.db).First(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.FormSubmission, error) {
	var submission model.FormSubmission
	if err := GetDB(ctx, r.db).
		Preload("Form").
		Preload("Submitter").
		Preload("Decider").
		First(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]model.FormSubmission, int64, error) {
	var submissions []model.FormSubmission
	var total int64

	db := GetDB(ctx, r.db)
	base := func() *gorm.DB {
		query := db.Model(&model.FormSubmission{})
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.FlowID != nil {
			query = query.Where("flow_id = ?", *filter.FlowID)
		}
		return query
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := base().
		Preload("Form").
		Preload("Submitter").
		Preload("Decider").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *model.FormSubmission) error {
	return GetDB(ctx, r.db).Save(submission).Error
}
