package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeOrderPayment TransactionType = "order_payment"
	TransactionTypeCommission   TransactionType = "commission"
	TransactionTypePayout       TransactionType = "payout"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction is an immutable ledger line written at order completion.
type Transaction struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	OrderID     uuid.UUID         `gorm:"type:uuid;not null" json:"order_id"`
	FacilityID  uuid.UUID         `gorm:"type:uuid;not null" json:"facility_id"`
	Type        TransactionType   `gorm:"type:transaction_type;not null" json:"type"`
	AmountCents int64             `gorm:"not null" json:"amount_cents"`
	Status      TransactionStatus `gorm:"type:transaction_status;not null" json:"status"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
