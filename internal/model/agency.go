package model

import (
	"time"

	"github.com/google/uuid"
)

type Agency struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name"`
	City             string    `gorm:"type:varchar(64);not null" json:"city"`
	ComplianceTarget int       `gorm:"not null;default:80" json:"compliance_target"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Agency) TableName() string {
	return "agencies"
}

type RequestInitiator string

const (
	RequestInitiatorDriver RequestInitiator = "driver"
	RequestInitiatorAgency RequestInitiator = "agency"
)

type AgencyRequestStatus string

const (
	AgencyRequestStatusPending  AgencyRequestStatus = "pending"
	AgencyRequestStatusAccepted AgencyRequestStatus = "accepted"
	AgencyRequestStatusRejected AgencyRequestStatus = "rejected"
	AgencyRequestStatusCancelled AgencyRequestStatus = "cancelled"
)

// AgencyRequest is an association proposal between one driver and one agency.
// At most one pending request may exist per pair, enforced by a partial unique
// index.
type AgencyRequest struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID    uuid.UUID           `gorm:"type:uuid;not null" json:"driver_id"`
	AgencyID    uuid.UUID           `gorm:"type:uuid;not null" json:"agency_id"`
	InitiatedBy RequestInitiator    `gorm:"type:request_initiator;not null" json:"initiated_by"`
	Status      AgencyRequestStatus `gorm:"type:agency_request_status;not null;default:'pending'" json:"status"`
	Message     *string             `gorm:"type:text" json:"message"`
	RespondedAt *time.Time          `json:"responded_at"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	Driver *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Agency *Agency `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
}

func (AgencyRequest) TableName() string {
	return "agency_requests"
}
