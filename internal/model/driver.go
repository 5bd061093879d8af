package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ComplianceStatus string

const (
	ComplianceStatusCompliant ComplianceStatus = "compliant"
	ComplianceStatusWarning   ComplianceStatus = "warning"
	ComplianceStatusOverdue   ComplianceStatus = "overdue"
)

type Driver struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	VehicleType      string           `gorm:"type:varchar(32);not null" json:"vehicle_type"`
	Platforms        pq.StringArray   `gorm:"type:text[]" json:"platforms"`
	City             string           `gorm:"type:varchar(64);not null" json:"city"`
	LastCleaningDate *time.Time       `json:"last_cleaning_date"`
	TotalCleanings   int              `gorm:"not null;default:0" json:"total_cleanings"`
	ComplianceStatus ComplianceStatus `gorm:"type:compliance_status;not null;default:'overdue'" json:"compliance_status"`
	AgencyID         *uuid.UUID       `gorm:"type:uuid" json:"agency_id"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID;references:UserID" json:"profile,omitempty"`
	Agency  *Agency  `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
}

func (Driver) TableName() string {
	return "drivers"
}
