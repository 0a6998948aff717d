package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a customer keyed by email. Customers are created implicitly the
// first time a payment for their email succeeds.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Orders    []Order   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
