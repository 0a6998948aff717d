package discounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
)

// DiscountCodeDTO is the admin-facing representation of a coupon.
type DiscountCodeDTO struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	DiscountKind   string     `json:"discount_kind"`
	DiscountAmount int        `json:"discount_amount"`
	Discount       string     `json:"discount"`
	AllProducts    bool       `json:"all_products"`
	ProductNames   []string   `json:"product_names"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Limit          *int       `json:"limit,omitempty"`
	Uses           int        `json:"uses"`
	RemainingUses  *int       `json:"remaining_uses,omitempty"`
	IsActive       bool       `json:"is_active"`
	OrderCount     int64      `json:"order_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DiscountCodeListResult splits codes into the two admin table sections.
type DiscountCodeListResult struct {
	Current []DiscountCodeDTO `json:"current"`
	Expired []DiscountCodeDTO `json:"expired"`
}

// NewDiscountCodeDTO maps a model row and its order count to the DTO.
// It fails when the row carries a kind outside the supported set.
func NewDiscountCodeDTO(code *models.DiscountCode, orderCount int64) (DiscountCodeDTO, error) {
	formatted, err := FormatDiscount(code)
	if err != nil {
		return DiscountCodeDTO{}, err
	}
	names := make([]string, 0, len(code.Products))
	for _, p := range code.Products {
		names = append(names, p.Name)
	}
	dto := DiscountCodeDTO{
		ID:             code.ID,
		Code:           code.Code,
		DiscountKind:   string(code.DiscountKind),
		DiscountAmount: code.DiscountAmount,
		Discount:       formatted,
		AllProducts:    code.AllProducts,
		ProductNames:   names,
		ExpiresAt:      code.ExpiresAt,
		Limit:          code.Limit,
		Uses:           code.Uses,
		IsActive:       code.IsActive,
		OrderCount:     orderCount,
		CreatedAt:      code.CreatedAt,
	}
	if code.Limit != nil {
		remaining := *code.Limit - code.Uses
		if remaining < 0 {
			remaining = 0
		}
		dto.RemainingUses = &remaining
	}
	return dto, nil
}
