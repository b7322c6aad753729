package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargingRecord is an RDF cost-center master-data record. It is read-only to
// this system: records are imported from the master-data authority and only
// read here to cascade their six dimensional fields into flow configuration.
// Each dimension is an optional code/name pair; a dimension with either half
// missing is treated as unset when cascading.
type ChargingRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code             string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	DepartmentCode   string          `gorm:"type:varchar(50)" json:"department_code"`
	DepartmentName   string          `gorm:"type:varchar(255)" json:"department_name"`
	CompanyCode      string          `gorm:"type:varchar(50)" json:"company_code"`
	CompanyName      string          `gorm:"type:varchar(255)" json:"company_name"`
	BusinessUnitCode string          `gorm:"type:varchar(50)" json:"business_unit_code"`
	BusinessUnitName string          `gorm:"type:varchar(255)" json:"business_unit_name"`
	UnitCode         string          `gorm:"type:varchar(50)" json:"unit_code"`
	UnitName         string          `gorm:"type:varchar(255)" json:"unit_name"`
	SubUnitCode      string          `gorm:"type:varchar(50)" json:"sub_unit_code"`
	SubUnitName      string          `gorm:"type:varchar(255)" json:"sub_unit_name"`
	LocationCode     string          `gorm:"type:varchar(50)" json:"location_code"`
	LocationName     string          `gorm:"type:varchar(255)" json:"location_name"`
	BudgetAmount     decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"budget_amount"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName keeps the RDF prefix used by the master-data authority exports
func (ChargingRecord) TableName() string {
	return "rdf_chargings"
}
