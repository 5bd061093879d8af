package model

import (
	"time"

	"github.com/google/uuid"
)

type Facility struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	City             string     `gorm:"type:varchar(64);not null" json:"city"`
	CommissionRate   float64    `gorm:"type:numeric(4,3);not null" json:"commission_rate"`
	Rating           float64    `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	TotalOrders      int        `gorm:"not null;default:0" json:"total_orders"`
	Active           bool       `gorm:"not null;default:true" json:"active"`
	PaymentAccountID *string    `gorm:"type:varchar(255)" json:"payment_account_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Services []FacilityService `gorm:"foreignKey:FacilityID" json:"services,omitempty"`
}

func (Facility) TableName() string {
	return "facilities"
}

type FacilityService struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	FacilityID  uuid.UUID `gorm:"type:uuid;not null" json:"facility_id"`
	ServiceType string    `gorm:"type:varchar(64);not null" json:"service_type"`
	PriceCents  int64     `gorm:"not null" json:"price_cents"`
	DurationMin int       `gorm:"not null" json:"duration_min"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FacilityService) TableName() string {
	return "facility_services"
}
