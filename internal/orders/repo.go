package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	"github.com/pixelvault/pixelvault-backend/pkg/pagination"
)

// Repository wires order and customer persistence to GORM.
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

// UpsertUserByEmail finds the customer or creates one on first purchase.
func (r *Repository) UpsertUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where(models.User{Email: email}).
		Attrs(models.User{ID: uuid.New()}).
		FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateOrder inserts the order row.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// IncrementDiscountUses bumps the coupon usage counter by one.
func (r *Repository) IncrementDiscountUses(ctx context.Context, discountCodeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", discountCodeID).
		Update("uses", gorm.Expr("uses + 1")).Error
}

// HasOrderForEmail reports whether the email already purchased the product.
func (r *Repository) HasOrderForEmail(ctx context.Context, email string, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN users ON users.id = orders.user_id").
		Where("users.email = ? AND orders.product_id = ?", email, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindUserWithOrders loads the customer and every order with product data.
func (r *Repository) FindUserWithOrders(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Orders.Product").
		First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListOrders returns one page of orders, newest first.
func (r *Repository) ListOrders(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Product").
		Preload("User").
		Preload("DiscountCode").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOrder removes the order row.
func (r *Repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUsersWithOrders returns every customer with their orders, newest
// customer first.
func (r *Repository) ListUsersWithOrders(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Preload("Orders").
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes the customer; their orders cascade with them.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SalesTotals aggregates revenue and order count.
func (r *Repository) SalesTotals(ctx context.Context) (totalInCents int64, orderCount int64, err error) {
	row := struct {
		Total int64
		Count int64
	}{}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(price_paid_in_cents), 0) AS total, COUNT(*) AS count").
		Find(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}

// CountUsers returns the customer count.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountProductsByAvailability returns active and inactive product counts.
func (r *Repository) CountProductsByAvailability(ctx context.Context) (active int64, inactive int64, err error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_available_for_purchase = ?", true).
		Count(&active).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_available_for_purchase = ?", false).
		Count(&inactive).Error; err != nil {
		return 0, 0, err
	}
	return active, inactive, nil
}
