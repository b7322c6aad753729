package model

import (
	"time"

	"github.com/google/uuid"
)

// Form category constants
const (
	FormCategoryAssessment  = "ASSESSMENT"  // CAT-1 competency assessments
	FormCategoryDevelopment = "DEVELOPMENT" // Personal Development Plans
	FormCategoryMasterData  = "MASTER_DATA" // MDA / DA change forms
)

// Form is a submittable form type that an approval flow governs
// (e.g. CAT-1 assessment, PDP, MDA change form).
type Form struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // CAT1, PDP, MDA, DA
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Category  string    `gorm:"type:varchar(30);not null;index" json:"category"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
