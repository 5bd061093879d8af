package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// allowedTransitions is the full order lifecycle: the only escape hatch is
// cancellation while the order is still pending. Completed and cancelled are
// terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:   {OrderStatusInProgress},
	OrderStatusInProgress: {OrderStatusCompleted},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves the order to the target status and stamps the matching
// lifecycle timestamp. Timestamps accumulate along the happy path and are never
// overwritten.
func ApplyTransition(o *Order, to OrderStatus, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("invalid order status transition: %s -> %s", o.Status, to)
	}
	o.Status = to
	switch to {
	case OrderStatusAccepted:
		if o.AcceptedAt == nil {
			t := now
			o.AcceptedAt = &t
		}
	case OrderStatusInProgress:
		if o.StartedAt == nil {
			t := now
			o.StartedAt = &t
		}
	case OrderStatusCompleted:
		if o.CompletedAt == nil {
			t := now
			o.CompletedAt = &t
		}
	case OrderStatusCancelled:
		if o.CancelledAt == nil {
			t := now
			o.CancelledAt = &t
		}
	}
	return nil
}

// TimestampColumn maps a lifecycle status to the column stamped when the order
// enters it. Used by the repository for guarded status updates.
func TimestampColumn(status OrderStatus) string {
	switch status {
	case OrderStatusAccepted:
		return "accepted_at"
	case OrderStatusInProgress:
		return "started_at"
	case OrderStatusCompleted:
		return "completed_at"
	case OrderStatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}

type Order struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	OrderNumber        string        `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	DriverID           uuid.UUID     `gorm:"type:uuid;not null" json:"driver_id"`
	FacilityID         uuid.UUID     `gorm:"type:uuid;not null" json:"facility_id"`
	BasePriceCents     int64         `gorm:"not null" json:"base_price_cents"`
	CommissionCents    int64         `gorm:"not null" json:"commission_cents"`
	TotalPriceCents    int64         `gorm:"not null" json:"total_price_cents"`
	Currency           string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status             OrderStatus   `gorm:"type:order_status;not null;default:'pending'" json:"status"`
	PaymentStatus      PaymentStatus `gorm:"type:payment_status;not null;default:'pending'" json:"payment_status"`
	PaymentIntentID    *string       `gorm:"type:varchar(255)" json:"payment_intent_id"`
	AcceptedAt         *time.Time    `json:"accepted_at"`
	StartedAt          *time.Time    `json:"started_at"`
	CompletedAt        *time.Time    `json:"completed_at"`
	CancelledAt        *time.Time    `json:"cancelled_at"`
	CancellationReason *string       `gorm:"type:text" json:"cancellation_reason"`
	Rating             *int          `json:"rating"`
	Review             *string       `gorm:"type:text" json:"review"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Driver       *Driver       `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Facility     *Facility     `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:OrderID" json:"transactions,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}
