package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatusLog struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	OrderID   uuid.UUID    `gorm:"type:uuid;not null" json:"order_id"`
	OldStatus *OrderStatus `gorm:"type:order_status" json:"old_status"`
	NewStatus OrderStatus  `gorm:"type:order_status;not null" json:"new_status"`
	Note      string       `gorm:"type:text" json:"note"`
	ChangedBy *uuid.UUID   `gorm:"type:uuid" json:"changed_by"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderStatusLog) TableName() string {
	return "order_status_log"
}

func (l *OrderStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
