package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a downloadable good in the catalog.
type Product struct {
	ID                     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name                   string    `gorm:"column:name;not null"`
	Description            string    `gorm:"column:description;not null"`
	PriceInCents           int       `gorm:"column:price_in_cents;not null"`
	FilePath               string    `gorm:"column:file_path;not null"`
	ImagePath              string    `gorm:"column:image_path;not null"`
	IsAvailableForPurchase bool      `gorm:"column:is_available_for_purchase;not null;default:false"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
