package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/internal/discounts"
	"github.com/pixelvault/pixelvault-backend/pkg/cache"
	"github.com/pixelvault/pixelvault-backend/pkg/config"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
	"github.com/pixelvault/pixelvault-backend/pkg/money"
)

const (
	storefrontLimit = 6

	cacheKeyAvailable = "catalog:available"
	cacheKeyPopular   = "catalog:popular"
	cacheKeyNewest    = "catalog:newest"

	// CacheTagProducts groups every cached product listing so a single
	// invalidation clears them all after an admin mutation.
	CacheTagProducts = "products"
)

// Service exposes storefront reads and admin product management.
type Service interface {
	ListAvailableProducts(ctx context.Context) ([]ProductDTO, error)
	MostPopularProducts(ctx context.Context) ([]ProductDTO, error)
	NewestProducts(ctx context.Context) ([]ProductDTO, error)
	GetPurchasePayload(ctx context.Context, productID uuid.UUID, coupon string) (*PurchasePayload, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)

	ListProducts(ctx context.Context) ([]AdminProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*AdminProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*AdminProductDTO, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
// New products start hidden until an admin flips availability.
type CreateProductInput struct {
	Name         string
	Description  string
	PriceInCents int
	File         FileUpload
	Image        FileUpload
}

// UpdateProductInput mirrors the create payload with optional assets.
type UpdateProductInput struct {
	Name         string
	Description  string
	PriceInCents int
	File         *FileUpload
	Image        *FileUpload
}

type couponFinder interface {
	FindUsable(ctx context.Context, code string, productID uuid.UUID) (*models.DiscountCode, error)
}

type service struct {
	repo     *Repository
	storage  *Storage
	cache    *cache.Cache
	cacheCfg config.CacheConfig
	coupons  couponFinder
	logg     *logger.Logger
}

// NewService constructs a catalog service instance. The cache is
// optional; without it every read goes to the database.
func NewService(repo *Repository, storage *Storage, cacheClient *cache.Cache, cacheCfg config.CacheConfig, coupons couponFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if storage == nil {
		return nil, fmt.Errorf("catalog storage required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		storage:  storage,
		cache:    cacheClient,
		cacheCfg: cacheCfg,
		coupons:  coupons,
		logg:     logg,
	}, nil
}

// ListAvailableProducts returns every purchasable product, cached.
func (s *service) ListAvailableProducts(ctx context.Context) ([]ProductDTO, error) {
	return s.cachedList(ctx, cacheKeyAvailable, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.ListAvailable(ctx)
	})
}

// MostPopularProducts returns the top sellers, cached.
func (s *service) MostPopularProducts(ctx context.Context) ([]ProductDTO, error) {
	return s.cachedList(ctx, cacheKeyPopular, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.MostPopular(ctx, storefrontLimit)
	})
}

// NewestProducts returns the most recently added products, cached.
func (s *service) NewestProducts(ctx context.Context) ([]ProductDTO, error) {
	return s.cachedList(ctx, cacheKeyNewest, func(ctx context.Context) ([]models.Product, error) {
		return s.repo.Newest(ctx, storefrontLimit)
	})
}

func (s *service) cachedList(ctx context.Context, key string, load func(ctx context.Context) ([]models.Product, error)) ([]ProductDTO, error) {
	fill := func(ctx context.Context) (any, error) {
		products, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return NewProductDTOs(products), nil
	}

	if s.cache == nil {
		products, err := load(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
		}
		return NewProductDTOs(products), nil
	}

	var dtos []ProductDTO
	if err := s.cache.GetOrFill(ctx, key, s.cacheCfg.StorefrontTTL, []string{CacheTagProducts}, &dtos, fill); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return dtos, nil
}

// GetPurchasePayload loads the product plus an optional applied coupon.
// An unusable coupon is dropped rather than failing the page.
func (s *service) GetPurchasePayload(ctx context.Context, productID uuid.UUID, coupon string) (*PurchasePayload, error) {
	product, err := s.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	payload := &PurchasePayload{Product: NewProductDTO(product)}

	coupon = strings.TrimSpace(coupon)
	if coupon == "" {
		return payload, nil
	}

	code, err := s.coupons.FindUsable(ctx, coupon, product.ID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return payload, nil
		}
		return nil, err
	}

	discounted, err := discounts.DiscountedPriceInCents(code, product.PriceInCents)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute discounted price")
	}
	formatted, err := discounts.FormatDiscount(code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render discount")
	}
	payload.Coupon = &CouponDTO{
		ID:                     code.ID,
		Code:                   code.Code,
		DiscountKind:           string(code.DiscountKind),
		DiscountAmount:         code.DiscountAmount,
		Discount:               formatted,
		DiscountedPriceInCents: discounted,
		DiscountedPrice:        money.FormatCents(discounted),
	}
	return payload, nil
}

// FindProduct loads one product row.
func (s *service) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
	}
	return product, nil
}

// ListProducts returns every product with its order count.
func (s *service) ListProducts(ctx context.Context) ([]AdminProductDTO, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	counts, err := s.repo.CountOrdersByProduct(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count product orders")
	}
	dtos := make([]AdminProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, NewAdminProductDTO(&products[i], counts[products[i].ID]))
	}
	return dtos, nil
}

// CreateProduct stores both assets then inserts the product row.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*AdminProductDTO, error) {
	if err := validateProductFields(input.Name, input.Description, input.PriceInCents); err != nil {
		return nil, err
	}
	if len(input.File.Content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if len(input.Image.Content) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}

	filePath, err := s.storage.SaveFile(input.File)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store product file")
	}
	imagePath, err := s.storage.SaveImage(input.Image)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store product image")
	}

	created, err := s.repo.Create(ctx, &models.Product{
		Name:                   strings.TrimSpace(input.Name),
		Description:            strings.TrimSpace(input.Description),
		PriceInCents:           input.PriceInCents,
		FilePath:               filePath,
		ImagePath:              imagePath,
		IsAvailableForPurchase: false,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	s.invalidateListings(ctx)
	dto := NewAdminProductDTO(created, 0)
	return &dto, nil
}

// UpdateProduct mutates the row, replacing stored assets when new
// uploads are provided.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*AdminProductDTO, error) {
	if err := validateProductFields(input.Name, input.Description, input.PriceInCents); err != nil {
		return nil, err
	}

	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.File != nil && len(input.File.Content) > 0 {
		oldPath := product.FilePath
		newPath, err := s.storage.SaveFile(*input.File)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store product file")
		}
		product.FilePath = newPath
		if err := s.storage.Remove(oldPath); err != nil {
			s.logg.Warn(s.logg.WithProductID(ctx, product.ID.String()), "failed to remove replaced product file")
		}
	}
	if input.Image != nil && len(input.Image.Content) > 0 {
		oldPath := product.ImagePath
		newPath, err := s.storage.SaveImage(*input.Image)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store product image")
		}
		product.ImagePath = newPath
		if err := s.storage.Remove(oldPath); err != nil {
			s.logg.Warn(s.logg.WithProductID(ctx, product.ID.String()), "failed to remove replaced product image")
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.PriceInCents = input.PriceInCents

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}

	s.invalidateListings(ctx)
	count, err := s.repo.CountOrders(ctx, saved.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count product orders")
	}
	dto := NewAdminProductDTO(saved, count)
	return &dto, nil
}

// SetAvailability shows or hides the product on the storefront.
func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product availability")
	}
	s.invalidateListings(ctx)
	return nil
}

// DeleteProduct removes the product and its stored assets. Products
// with orders cannot be deleted.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count product orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "product has orders and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}

	ctxWithID := s.logg.WithProductID(ctx, id.String())
	if err := s.storage.Remove(product.FilePath); err != nil {
		s.logg.Warn(ctxWithID, "failed to remove product file")
	}
	if err := s.storage.Remove(product.ImagePath); err != nil {
		s.logg.Warn(ctxWithID, "failed to remove product image")
	}

	s.invalidateListings(ctx)
	return nil
}

func (s *service) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, CacheTagProducts); err != nil {
		s.logg.Warn(ctx, "failed to invalidate product listings cache")
	}
}

func validateProductFields(name, description string, priceInCents int) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if priceInCents < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 1 cent")
	}
	return nil
}
