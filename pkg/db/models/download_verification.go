package models

import (
	"time"

	"github.com/google/uuid"
)

// DownloadVerification is an opaque, time-bounded token granting access to a
// product's file. The id doubles as the token; expired rows stop matching
// and are swept out by the cleanup job.
type DownloadVerification struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
