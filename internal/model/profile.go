package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors the managed-auth user record. Rows are created by the auth
// provider; this service only reads them.
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	Role      UserRole  `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
