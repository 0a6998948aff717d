package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/db"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
)

// Service exposes admin coupon management and checkout-time lookups.
type Service interface {
	CreateDiscountCode(ctx context.Context, input CreateDiscountCodeInput) (*DiscountCodeDTO, error)
	ListDiscountCodes(ctx context.Context) (*DiscountCodeListResult, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteDiscountCode(ctx context.Context, id uuid.UUID) error
	FindUsable(ctx context.Context, code string, productID uuid.UUID) (*models.DiscountCode, error)
}

// CreateDiscountCodeInput holds the validated payload to create a coupon.
type CreateDiscountCodeInput struct {
	Code           string
	DiscountKind   string
	DiscountAmount int
	AllProducts    bool
	ProductIDs     []uuid.UUID
	ExpiresAt      *time.Time
	Limit          *int
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	now      func() time.Time
}

// NewService constructs a discount code service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, now: time.Now}, nil
}

// CreateDiscountCode validates the coupon invariants and inserts it.
func (s *service) CreateDiscountCode(ctx context.Context, input CreateDiscountCodeInput) (*DiscountCodeDTO, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	kind, ok := models.ParseDiscountKind(input.DiscountKind)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount kind %q", input.DiscountKind))
	}
	if input.DiscountAmount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be at least 1")
	}
	if kind == models.DiscountKindPercentage && input.DiscountAmount > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be less than or equal 100")
	}

	if input.AllProducts && len(input.ProductIDs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot select products when all products is selected")
	}
	if !input.AllProducts && len(input.ProductIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must select products when all products is not selected")
	}

	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration must be in the future")
	}
	if input.Limit != nil && *input.Limit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be at least 1")
	}

	var covered []models.Product
	if len(input.ProductIDs) > 0 {
		products, err := s.repo.FindProductsByIDs(ctx, input.ProductIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
		}
		if len(products) != len(input.ProductIDs) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "one or more products do not exist")
		}
		covered = products
	}

	record := &models.DiscountCode{
		Code:           code,
		DiscountKind:   kind,
		DiscountAmount: input.DiscountAmount,
		AllProducts:    input.AllProducts,
		Products:       covered,
		ExpiresAt:      input.ExpiresAt,
		Limit:          input.Limit,
		IsActive:       true,
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("discount code %q already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert discount code")
	}

	dto, err := NewDiscountCodeDTO(created, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render discount code")
	}
	return &dto, nil
}

// ListDiscountCodes returns all coupons split into current and expired.
func (s *service) ListDiscountCodes(ctx context.Context) (*DiscountCodeListResult, error) {
	codes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list discount codes")
	}
	counts, err := s.repo.CountOrdersByCode(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count discount orders")
	}

	now := s.now()
	result := &DiscountCodeListResult{
		Current: []DiscountCodeDTO{},
		Expired: []DiscountCodeDTO{},
	}
	for i := range codes {
		code := &codes[i]
		dto, err := NewDiscountCodeDTO(code, counts[code.ID])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render discount code")
		}
		if IsExpired(code, now) {
			result.Expired = append(result.Expired, dto)
		} else {
			result.Current = append(result.Current, dto)
		}
	}
	return result, nil
}

// SetActive enables or disables the coupon.
func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update discount code")
	}
	return nil
}

// DeleteDiscountCode removes the coupon. Existing orders keep their
// reference and block the delete at the database level.
func (s *service) DeleteDiscountCode(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete discount code")
	}
	return nil
}

// FindUsable resolves a coupon string to a code usable on the product.
// A missing or unusable code both map to not-found so checkout callers
// can present a single "expired" message.
func (s *service) FindUsable(ctx context.Context, code string, productID uuid.UUID) (*models.DiscountCode, error) {
	record, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find discount code")
	}
	if !IsUsable(record, productID, s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not usable")
	}
	return record, nil
}
