package database

import (
	"context"
	"log"

	"hradmin/internal/model"
	"hradmin/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Form{},
		&model.ChargingRecord{},
		&model.ApprovalFlow{},
		&model.ApproverStep{},
		&model.FormSubmission{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// SeedDefaultForms inserts the built-in submittable form types if missing.
func SeedDefaultForms(db *gorm.DB) error {
	defaults := []model.Form{
		{Code: "CAT1", Name: "CAT-1 Competency Assessment", Category: model.FormCategoryAssessment},
		{Code: "PDP", Name: "Personal Development Plan", Category: model.FormCategoryDevelopment},
		{Code: "MDA", Name: "Master Data Authority Change", Category: model.FormCategoryMasterData},
		{Code: "DA", Name: "Developmental Assignment", Category: model.FormCategoryDevelopment},
	}

	for i := range defaults {
		f := &defaults[i]
		var existing model.Form
		if err := db.Where("code = ?", f.Code).First(&existing).Error; err == nil {
			continue
		}
		f.IsActive = true
		if err := db.Create(f).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedDemoChargings loads a small set of RDF charging master-data rows through
// the import path. Intended for development databases only.
func SeedDemoChargings(ctx context.Context, repo repository.ChargingRepository) error {
	demo := []model.ChargingRecord{
		{
			Code: "RDF-HR-001", Name: "HR Operations",
			DepartmentCode: "HR", DepartmentName: "Human Resources",
			CompanyCode: "C01", CompanyName: "Headquarters",
			BusinessUnitCode: "BU-CORP", BusinessUnitName: "Corporate Services",
			UnitCode: "U-HROPS", UnitName: "HR Operations Unit",
			LocationCode: "MNL", LocationName: "Manila",
			BudgetAmount: decimal.NewFromInt(250000),
		},
		{
			Code: "RDF-LD-002", Name: "Learning and Development",
			DepartmentCode: "HR", DepartmentName: "Human Resources",
			CompanyCode: "C01", CompanyName: "Headquarters",
			BusinessUnitCode: "BU-CORP", BusinessUnitName: "Corporate Services",
			UnitCode: "U-LD", UnitName: "Learning and Development Unit",
			SubUnitCode: "SU-TRN", SubUnitName: "Training Delivery",
			LocationCode: "MNL", LocationName: "Manila",
			BudgetAmount: decimal.NewFromInt(120000),
		},
		{
			// Partial cascade on purpose: no sub-unit or location pair
			Code: "RDF-OPS-003", Name: "Field Operations",
			DepartmentCode: "OPS", DepartmentName: "Operations",
			CompanyCode: "C02", CompanyName: "Regional Branch",
			BudgetAmount: decimal.NewFromInt(80000),
		},
	}

	for i := range demo {
		if err := repo.Upsert(ctx, &demo[i]); err != nil {
			return err
		}
	}
	return nil
}
