package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalFlow is a named, configurable chain of approvers attached to a
// form type and an optional RDF charging record. Archiving is a soft delete
// (DeletedAt set); archived flows can be restored.
//
// Invariants maintained by the service layer on every write:
//   - Approvers orders form a contiguous 1..N sequence
//   - No approver id appears twice
//   - NoCharging is mutually exclusive with a populated ChargingID
type ApprovalFlow struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	FormID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"form_id"`
	Form           *Form           `gorm:"foreignKey:FormID" json:"form,omitempty"`
	ChargingID     *uuid.UUID      `gorm:"type:uuid;index" json:"charging_id"`
	Charging       *ChargingRecord `gorm:"foreignKey:ChargingID" json:"charging,omitempty"`
	NoCharging     bool            `gorm:"default:false" json:"no_charging"`
	ReceiverUserID *uuid.UUID      `gorm:"type:uuid" json:"receiver_user_id"`
	Receiver       *User           `gorm:"foreignKey:ReceiverUserID" json:"receiver,omitempty"`
	Approvers      []ApproverStep  `gorm:"foreignKey:FlowID;constraint:OnDelete:CASCADE" json:"approvers"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"` // archive marker
}

// ApproverStep is one rank in a flow's approver chain. Steps are owned
// exclusively by their flow and fully replaced on every flow update.
// Display fields are denormalized from the user directory at write time.
type ApproverStep struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FlowID      uuid.UUID `gorm:"type:uuid;not null;index" json:"flow_id"`
	ApproverID  uuid.UUID `gorm:"type:uuid;not null" json:"approver_id"`
	Approver    *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Position    string    `gorm:"type:varchar(255)" json:"position"`
	Department  string    `gorm:"type:varchar(255)" json:"department"`
	Order       int       `gorm:"column:order;not null" json:"order"` // 1-based rank
	CreatedAt   time.Time `json:"created_at"`
}
