package discounts

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	"github.com/pixelvault/pixelvault-backend/pkg/money"
)

// IsUsable reports whether the code can be applied to the product at the
// given instant. A code is usable when it is active, covers the product,
// has uses remaining, and has not expired.
func IsUsable(code *models.DiscountCode, productID uuid.UUID, now time.Time) bool {
	if code == nil || !code.IsActive {
		return false
	}
	if !code.AllProducts && !coversProduct(code, productID) {
		return false
	}
	if code.Limit != nil && code.Uses >= *code.Limit {
		return false
	}
	if code.ExpiresAt != nil && !code.ExpiresAt.After(now) {
		return false
	}
	return true
}

// IsExpired reports whether the code has run out of uses or passed its
// expiry. Inactive codes with headroom are not expired, only disabled.
func IsExpired(code *models.DiscountCode, now time.Time) bool {
	if code.Limit != nil && code.Uses >= *code.Limit {
		return true
	}
	if code.ExpiresAt != nil && !code.ExpiresAt.After(now) {
		return true
	}
	return false
}

// DiscountedPriceInCents applies the code to a price. Percentage codes
// round up to the next cent; fixed codes subtract whole currency units.
// The result never drops below one cent.
func DiscountedPriceInCents(code *models.DiscountCode, priceInCents int) (int, error) {
	switch code.DiscountKind {
	case models.DiscountKindPercentage:
		discounted := int(math.Ceil(float64(priceInCents) - float64(priceInCents)*float64(code.DiscountAmount)/100))
		if discounted < 1 {
			return 1, nil
		}
		return discounted, nil
	case models.DiscountKindFixed:
		discounted := priceInCents - code.DiscountAmount*100
		if discounted < 1 {
			return 1, nil
		}
		return discounted, nil
	default:
		return 0, fmt.Errorf("invalid discount kind %q", code.DiscountKind)
	}
}

// FormatDiscount renders the discount for display, "40%" for percentage
// codes and "$5" for fixed codes. Unknown kinds fail the same way
// DiscountedPriceInCents does.
func FormatDiscount(code *models.DiscountCode) (string, error) {
	switch code.DiscountKind {
	case models.DiscountKindPercentage:
		return fmt.Sprintf("%d%%", code.DiscountAmount), nil
	case models.DiscountKindFixed:
		return money.FormatUnits(code.DiscountAmount), nil
	default:
		return "", fmt.Errorf("invalid discount kind %q", code.DiscountKind)
	}
}

func coversProduct(code *models.DiscountCode, productID uuid.UUID) bool {
	for _, p := range code.Products {
		if p.ID == productID {
			return true
		}
	}
	return false
}
