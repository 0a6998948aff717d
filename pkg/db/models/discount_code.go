package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountKind is the closed set of supported discount computations.
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "PERCENTAGE"
	DiscountKindFixed      DiscountKind = "FIXED"
)

// ParseDiscountKind validates an incoming kind string.
func ParseDiscountKind(value string) (DiscountKind, bool) {
	switch DiscountKind(value) {
	case DiscountKindPercentage:
		return DiscountKindPercentage, true
	case DiscountKindFixed:
		return DiscountKindFixed, true
	}
	return "", false
}

// DiscountCode is a coupon reducing a product's price.
//
// Invariants: PERCENTAGE amounts never exceed 100, and exactly one of
// {AllProducts, non-empty Products set} holds.
type DiscountCode struct {
	ID             uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	Code           string       `gorm:"column:code;not null;uniqueIndex"`
	DiscountKind   DiscountKind `gorm:"column:discount_kind;type:text;not null"`
	DiscountAmount int          `gorm:"column:discount_amount;not null"`
	AllProducts    bool         `gorm:"column:all_products;not null;default:false"`
	Products       []Product    `gorm:"many2many:discount_code_products;constraint:OnDelete:CASCADE"`
	ExpiresAt      *time.Time   `gorm:"column:expires_at"`
	Limit          *int         `gorm:"column:usage_limit"`
	Uses           int          `gorm:"column:uses;not null;default:0"`
	IsActive       bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime"`
}
