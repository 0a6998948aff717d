package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	"github.com/pixelvault/pixelvault-backend/pkg/money"
)

// ProductDTO is the storefront representation of a product.
type ProductDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceInCents int       `json:"price_in_cents"`
	Price        string    `json:"price"`
	ImagePath    string    `json:"image_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminProductDTO adds the fields only the dashboard sees.
type AdminProductDTO struct {
	ProductDTO
	FilePath               string `json:"file_path"`
	IsAvailableForPurchase bool   `json:"is_available_for_purchase"`
	OrderCount             int64  `json:"order_count"`
}

// CouponDTO describes a usable discount applied to a purchase page.
type CouponDTO struct {
	ID                     uuid.UUID `json:"id"`
	Code                   string    `json:"code"`
	DiscountKind           string    `json:"discount_kind"`
	DiscountAmount         int       `json:"discount_amount"`
	Discount               string    `json:"discount"`
	DiscountedPriceInCents int       `json:"discounted_price_in_cents"`
	DiscountedPrice        string    `json:"discounted_price"`
}

// PurchasePayload is everything the checkout form needs to render.
type PurchasePayload struct {
	Product ProductDTO `json:"product"`
	Coupon  *CouponDTO `json:"coupon,omitempty"`
}

// NewProductDTO maps a product row to its storefront shape.
func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PriceInCents: p.PriceInCents,
		Price:        money.FormatCents(p.PriceInCents),
		ImagePath:    p.ImagePath,
		CreatedAt:    p.CreatedAt,
	}
}

// NewAdminProductDTO maps a product row and its order count.
func NewAdminProductDTO(p *models.Product, orderCount int64) AdminProductDTO {
	return AdminProductDTO{
		ProductDTO:             NewProductDTO(p),
		FilePath:               p.FilePath,
		IsAvailableForPurchase: p.IsAvailableForPurchase,
		OrderCount:             orderCount,
	}
}

// NewProductDTOs maps a slice of rows preserving order.
func NewProductDTOs(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, NewProductDTO(&products[i]))
	}
	return dtos
}
