package checkout

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/internal/discounts"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/money"
)

// Metadata keys carried on every payment intent so the webhook can
// reconstruct the purchase.
const (
	MetadataProductID      = "productId"
	MetadataDiscountCodeID = "discountCodeId"
)

// CreateIntentInput is the payload to start a checkout.
type CreateIntentInput struct {
	Email     string
	ProductID uuid.UUID
	Coupon    string
}

// IntentDTO returns what the payment form needs to confirm the charge.
type IntentDTO struct {
	ClientSecret  string `json:"client_secret"`
	AmountInCents int    `json:"amount_in_cents"`
	Amount        string `json:"amount"`
}

// ConfirmationDTO describes the outcome of a finished payment.
type ConfirmationDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Succeeded   bool      `json:"succeeded"`
	DownloadURL *string   `json:"download_url,omitempty"`
}

// Service creates Stripe payment intents and confirms finished payments.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentDTO, error)
	Confirm(ctx context.Context, paymentIntentID string) (*ConfirmationDTO, error)
}

type productFinder interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponFinder interface {
	FindUsable(ctx context.Context, code string, productID uuid.UUID) (*models.DiscountCode, error)
}

type purchaseChecker interface {
	HasOrderForEmail(ctx context.Context, email string, productID uuid.UUID) (bool, error)
}

type downloadIssuer interface {
	Issue(ctx context.Context, productID uuid.UUID) (*models.DownloadVerification, error)
	IssueTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error)
	DownloadURL(token uuid.UUID) string
}

type service struct {
	products  productFinder
	coupons   couponFinder
	purchases purchaseChecker
	downloads downloadIssuer
	payments  StripePaymentClient
}

// NewService constructs a checkout service instance.
func NewService(products productFinder, coupons couponFinder, purchases purchaseChecker, downloads downloadIssuer, payments StripePaymentClient) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon finder required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	if downloads == nil {
		return nil, fmt.Errorf("download issuer required")
	}
	if payments == nil {
		return nil, fmt.Errorf("stripe payment client required")
	}
	return &service{
		products:  products,
		coupons:   coupons,
		purchases: purchases,
		downloads: downloads,
		payments:  payments,
	}, nil
}

// CreateIntent validates the purchase and opens a payment intent. The
// duplicate purchase check runs before any Stripe call so a rejected
// checkout never creates a dangling intent.
func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentDTO, error) {
	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}

	product, err := s.products.FindProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	var code *models.DiscountCode
	if coupon := strings.TrimSpace(input.Coupon); coupon != "" {
		code, err = s.coupons.FindUsable(ctx, coupon, product.ID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
			}
			return nil, err
		}
	}

	alreadyPurchased, err := s.purchases.HasOrderForEmail(ctx, email, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check existing orders")
	}
	if alreadyPurchased {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already purchased this product; download it from your order history")
	}

	amount := product.PriceInCents
	if code != nil {
		amount, err = discounts.DiscountedPriceInCents(code, product.PriceInCents)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute discounted price")
		}
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(int64(amount)),
		Currency:     stripe.String(string(stripe.CurrencyUSD)),
		ReceiptEmail: stripe.String(email),
	}
	params.AddMetadata(MetadataProductID, product.ID.String())
	if code != nil {
		params.AddMetadata(MetadataDiscountCodeID, code.ID.String())
	}

	intent, err := s.payments.CreateIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create payment intent")
	}
	if intent.ClientSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe returned no client secret")
	}

	return &IntentDTO{
		ClientSecret:  intent.ClientSecret,
		AmountInCents: amount,
		Amount:        money.FormatCents(amount),
	}, nil
}

// Confirm resolves a finished payment intent back to its product and,
// when the charge succeeded, mints a download link for the success page.
func (s *service) Confirm(ctx context.Context, paymentIntentID string) (*ConfirmationDTO, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	intent, err := s.payments.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: get payment intent")
	}

	rawProductID, ok := intent.Metadata[MetadataProductID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent has no product metadata")
	}
	productID, err := uuid.Parse(rawProductID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent has invalid product metadata")
	}

	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	confirmation := &ConfirmationDTO{
		ProductID:   product.ID,
		ProductName: product.Name,
		Succeeded:   intent.Status == stripe.PaymentIntentStatusSucceeded,
	}
	if confirmation.Succeeded {
		verification, err := s.downloads.Issue(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		url := s.downloads.DownloadURL(verification.ID)
		confirmation.DownloadURL = &url
	}
	return confirmation, nil
}
