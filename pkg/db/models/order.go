package models

import (
	"time"

	"github.com/google/uuid"
)

// Order records a completed purchase. Rows are immutable once created;
// admins may delete them.
type Order struct {
	ID               uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID     `gorm:"column:user_id;type:uuid;not null"`
	ProductID        uuid.UUID     `gorm:"column:product_id;type:uuid;not null"`
	DiscountCodeID   *uuid.UUID    `gorm:"column:discount_code_id;type:uuid"`
	PricePaidInCents int           `gorm:"column:price_paid_in_cents;not null"`
	Product          *Product      `gorm:"foreignKey:ProductID"`
	User             *User         `gorm:"foreignKey:UserID"`
	DiscountCode     *DiscountCode `gorm:"foreignKey:DiscountCodeID"`
	CreatedAt        time.Time     `gorm:"column:created_at;autoCreateTime"`
}
