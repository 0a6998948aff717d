package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
)

// Repository wires discount code persistence to GORM.
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

// Create inserts the discount code with its product associations.
func (r *Repository) Create(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error) {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return nil, err
	}
	return code, nil
}

// FindByID loads a code with its covered products.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.db.WithContext(ctx).Preload("Products").First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// FindByCode loads a code by its customer-facing string.
func (r *Repository) FindByCode(ctx context.Context, value string) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.db.WithContext(ctx).Preload("Products").First(&code, "code = ?", value).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// ListAll returns every code with covered products, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	if err := r.db.WithContext(ctx).
		Preload("Products").
		Order("created_at ASC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// CountOrdersByCode returns the number of orders placed with each code.
func (r *Repository) CountOrdersByCode(ctx context.Context) (map[uuid.UUID]int64, error) {
	rows := []struct {
		DiscountCodeID uuid.UUID
		OrderCount     int64
	}{}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("discount_code_id, COUNT(*) AS order_count").
		Where("discount_code_id IS NOT NULL").
		Group("discount_code_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.DiscountCodeID] = row.OrderCount
	}
	return counts, nil
}

// SetActive flips the active flag on the code.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the code. Join rows cascade with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DiscountCode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementUses bumps the usage counter by one.
func (r *Repository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Update("uses", gorm.Expr("uses + 1")).Error
}

// FindProductsByIDs loads products for coverage validation.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Find(&products, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return products, nil
}
