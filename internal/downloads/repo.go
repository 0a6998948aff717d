package downloads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
)

// Repository wires download verification persistence to GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the verification token row.
func (r *Repository) Create(ctx context.Context, verification *models.DownloadVerification) (*models.DownloadVerification, error) {
	if err := r.db.WithContext(ctx).Create(verification).Error; err != nil {
		return nil, err
	}
	return verification, nil
}

// FindValid loads an unexpired token with its product.
func (r *Repository) FindValid(ctx context.Context, token uuid.UUID, now time.Time) (*models.DownloadVerification, error) {
	var verification models.DownloadVerification
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&verification, "id = ? AND expires_at > ?", token, now).Error; err != nil {
		return nil, err
	}
	return &verification, nil
}

// DeleteExpired removes tokens past their expiry, returning the count.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.DownloadVerification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
