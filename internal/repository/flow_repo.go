package repository

import (
	"context"

	"hradmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlowFilter narrows flow listings. Status is "active", "archived" or "all".
type FlowFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type FlowRepository interface {
	Create(ctx context.Context, flow *model.ApprovalFlow) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalFlow, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalFlow, error)
	List(ctx context.Context, filter FlowFilter) ([]model.ApprovalFlow, int64, error)
	Update(ctx context.Context, flow *model.ApprovalFlow) error
	ReplaceSteps(ctx context.Context, flowID uuid.UUID, steps []model.ApproverStep) error
	Archive(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	CountPendingSubmissions(ctx context.Context, flowID uuid.UUID) (int64, error)
}

type flowRepository struct {
	db *gorm.DB
}

func NewFlowRepository(db *gorm.DB) FlowRepository {
	return &flowRepository{db: db}
}

func (r *flowRepository) Create(ctx context.Context, flow *model.ApprovalFlow) error {
	return GetDB(ctx, r.db).Create(flow).Error
}

// FindByID looks the flow up including archived rows so archive/restore can
// toggle on the same id.
func (r *flowRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalFlow, error) {
	var flow model.ApprovalFlow
	if err := GetDB(ctx, r.db).Unscoped().First(&flow, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *flowRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalFlow, error) {
	var flow model.ApprovalFlow
	if err := GetDB(ctx, r.db).Unscoped().
		Preload("Form").
		Preload("Charging").
		Preload("Receiver").
		Preload("Approvers", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" ASC")
		}).
		First(&flow, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *flowRepository) List(ctx context.Context, filter FlowFilter) ([]model.ApprovalFlow, int64, error) {
	var flows []model.ApprovalFlow
	var total int64

	db := GetDB(ctx, r.db)
	base := func() *gorm.DB {
		query := db.Model(&model.ApprovalFlow{})
		switch filter.Status {
		case "archived":
			query = query.Unscoped().Where("deleted_at IS NOT NULL")
		case "all":
			query = query.Unscoped()
		default: // active
		}
		if filter.Search != "" {
			query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
		}
		return query
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := base().
		Preload("Form").
		Preload("Charging").
		Preload("Receiver").
		Preload("Approvers", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" ASC")
		}).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&flows).Error; err != nil {
		return nil, 0, err
	}

	return flows, total, nil
}

func (r *flowRepository) Update(ctx context.Context, flow *model.ApprovalFlow) error {
	return GetDB(ctx, r.db).Omit("Approvers").Save(flow).Error
}

// ReplaceSteps swaps a flow's approver chain wholesale. Flow updates always
// carry the full sequence, so partial step edits never happen at this layer.
func (r *flowRepository) ReplaceSteps(ctx context.Context, flowID uuid.UUID, steps []model.ApproverStep) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("flow_id = ?", flowID).Delete(&model.ApproverStep{}).Error; err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}
	for i := range steps {
		steps[i].FlowID = flowID
	}
	return db.Create(&steps).Error
}

func (r *flowRepository) Archive(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.ApprovalFlow{}, "id = ?", id).Error
}

func (r *flowRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Unscoped().Model(&model.ApprovalFlow{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// CountPendingSubmissions reports how many in-flight submissions reference
// the flow; any at all marks the flow as in use.
func (r *flowRepository) CountPendingSubmissions(ctx context.Context, flowID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.FormSubmission{}).
		Where("flow_id = ? AND status = ?", flowID, model.SubmissionPending).
		Count(&count).Error
	return count, err
}
