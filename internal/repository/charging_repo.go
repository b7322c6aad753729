package repository

import (
	"context"

	"hradmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChargingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.ChargingRecord, error)
	FindByCode(ctx context.Context, code string) (*model.ChargingRecord, error)
	List(ctx context.Context, search string, page, limit int) ([]model.ChargingRecord, int64, error)
	Upsert(ctx context.Context, record *model.ChargingRecord) error
}

type chargingRepository struct {
	db *gorm.DB
}

func NewChargingRepository(db *gorm.DB) ChargingRepository {
	return &chargingRepository{db: db}
}

func (r *chargingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ChargingRecord, error) {
	var record model.ChargingRecord
	if err := GetDB(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *chargingRepository) FindByCode(ctx context.Context, code string) (*model.ChargingRecord, error) {
	var record model.ChargingRecord
	if err := GetDB(ctx, r.db).First(&record, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *chargingRepository) List(ctx context.Context, search string, page, limit int) ([]model.ChargingRecord, int64, error) {
	var records []model.ChargingRecord
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ChargingRecord{})
	if search != "" {
		query = query.Where("code ILIKE ? OR name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Order("code ASC").Offset(offset).Limit(limit)
	if search != "" {
		fetchQuery = fetchQuery.Where("code ILIKE ? OR name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := fetchQuery.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// Upsert writes a master-data row keyed by code. Used by the import path
// only; the rest of the system treats chargings as read-only.
func (r *chargingRepository) Upsert(ctx context.Context, record *model.ChargingRecord) error {
	db := GetDB(ctx, r.db)
	var existing model.ChargingRecord
	if err := db.First(&existing, "code = ?", record.Code).Error; err == nil {
		record.ID = existing.ID
		return db.Save(record).Error
	}
	return db.Create(record).Error
}
