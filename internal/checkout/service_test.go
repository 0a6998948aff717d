package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
)

type stubProducts struct {
	product *models.Product
}

func (s *stubProducts) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if s.product != nil && s.product.ID == id {
		return s.product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type stubCoupons struct {
	code *models.DiscountCode
}

func (s *stubCoupons) FindUsable(_ context.Context, code string, _ uuid.UUID) (*models.DiscountCode, error) {
	if s.code != nil && s.code.Code == code {
		return s.code, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not usable")
}

type stubPurchases struct {
	purchased bool
}

func (s *stubPurchases) HasOrderForEmail(context.Context, string, uuid.UUID) (bool, error) {
	return s.purchased, nil
}

type stubDownloads struct {
	issued []uuid.UUID
}

func (s *stubDownloads) Issue(_ context.Context, productID uuid.UUID) (*models.DownloadVerification, error) {
	verification := &models.DownloadVerification{ID: uuid.New(), ProductID: productID}
	s.issued = append(s.issued, verification.ID)
	return verification, nil
}

func (s *stubDownloads) IssueTx(ctx context.Context, _ *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error) {
	return s.Issue(ctx, productID)
}

func (s *stubDownloads) DownloadURL(token uuid.UUID) string {
	return "https://store.example.com/products/download/" + token.String()
}

type stubStripe struct {
	createdParams *stripe.PaymentIntentParams
	intent        *stripe.PaymentIntent
}

func (s *stubStripe) CreateIntent(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.createdParams = params
	return &stripe.PaymentIntent{ClientSecret: "pi_secret_123"}, nil
}

func (s *stubStripe) GetIntent(context.Context, string) (*stripe.PaymentIntent, error) {
	return s.intent, nil
}

type harness struct {
	svc       Service
	products  *stubProducts
	coupons   *stubCoupons
	purchases *stubPurchases
	downloads *stubDownloads
	payments  *stubStripe
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		products: &stubProducts{product: &models.Product{
			ID:           uuid.New(),
			Name:         "Synth Pack",
			PriceInCents: 1000,
		}},
		coupons:   &stubCoupons{},
		purchases: &stubPurchases{},
		downloads: &stubDownloads{},
		payments:  &stubStripe{},
	}
	svc, err := NewService(h.products, h.coupons, h.purchases, h.downloads, h.payments)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	return h
}

func TestCreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("fullPrice", func(t *testing.T) {
		h := newHarness(t)
		dto, err := h.svc.CreateIntent(ctx, CreateIntentInput{
			Email:     "buyer@example.com",
			ProductID: h.products.product.ID,
		})
		if err != nil {
			t.Fatalf("create intent: %v", err)
		}
		if dto.ClientSecret != "pi_secret_123" {
			t.Fatalf("expected client secret, got %q", dto.ClientSecret)
		}
		if dto.AmountInCents != 1000 || dto.Amount != "$10" {
			t.Fatalf("unexpected amount %+v", dto)
		}
		params := h.payments.createdParams
		if params == nil || *params.Amount != 1000 {
			t.Fatalf("expected stripe amount 1000, got %+v", params)
		}
		if *params.Currency != string(stripe.CurrencyUSD) {
			t.Fatalf("expected usd currency, got %s", *params.Currency)
		}
		if params.Metadata[MetadataProductID] != h.products.product.ID.String() {
			t.Fatal("expected product id metadata")
		}
		if _, ok := params.Metadata[MetadataDiscountCodeID]; ok {
			t.Fatal("expected no discount metadata without a coupon")
		}
	})

	t.Run("withCoupon", func(t *testing.T) {
		h := newHarness(t)
		h.coupons.code = &models.DiscountCode{
			ID:             uuid.New(),
			Code:           "PIXEL20",
			DiscountKind:   models.DiscountKindPercentage,
			DiscountAmount: 20,
			AllProducts:    true,
			IsActive:       true,
		}

		dto, err := h.svc.CreateIntent(ctx, CreateIntentInput{
			Email:     "buyer@example.com",
			ProductID: h.products.product.ID,
			Coupon:    "PIXEL20",
		})
		if err != nil {
			t.Fatalf("create intent: %v", err)
		}
		if dto.AmountInCents != 800 {
			t.Fatalf("expected discounted amount 800, got %d", dto.AmountInCents)
		}
		if h.payments.createdParams.Metadata[MetadataDiscountCodeID] != h.coupons.code.ID.String() {
			t.Fatal("expected discount id metadata")
		}
	})

	t.Run("expiredCoupon", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.CreateIntent(ctx, CreateIntentInput{
			Email:     "buyer@example.com",
			ProductID: h.products.product.ID,
			Coupon:    "GONE",
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		if typed.Message() != "coupon has expired" {
			t.Fatalf("expected coupon has expired message, got %q", typed.Message())
		}
	})

	t.Run("duplicatePurchaseBlocksBeforeStripe", func(t *testing.T) {
		h := newHarness(t)
		h.purchases.purchased = true

		_, err := h.svc.CreateIntent(ctx, CreateIntentInput{
			Email:     "buyer@example.com",
			ProductID: h.products.product.ID,
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
			t.Fatalf("expected conflict error, got %v", err)
		}
		if h.payments.createdParams != nil {
			t.Fatal("expected no stripe call for duplicate purchase")
		}
	})

	t.Run("invalidEmail", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.CreateIntent(ctx, CreateIntentInput{
			Email:     "nope",
			ProductID: h.products.product.ID,
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("unknownProduct", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.CreateIntent(ctx, CreateIntentInput{
			Email:     "buyer@example.com",
			ProductID: uuid.New(),
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found error, got %v", err)
		}
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("succeededMintsDownloadLink", func(t *testing.T) {
		h := newHarness(t)
		h.payments.intent = &stripe.PaymentIntent{
			Status:   stripe.PaymentIntentStatusSucceeded,
			Metadata: map[string]string{MetadataProductID: h.products.product.ID.String()},
		}

		confirmation, err := h.svc.Confirm(ctx, "pi_123")
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if !confirmation.Succeeded {
			t.Fatal("expected succeeded confirmation")
		}
		if confirmation.DownloadURL == nil {
			t.Fatal("expected download url")
		}
		if len(h.downloads.issued) != 1 {
			t.Fatalf("expected one issued token, got %d", len(h.downloads.issued))
		}
	})

	t.Run("pendingPaymentHasNoLink", func(t *testing.T) {
		h := newHarness(t)
		h.payments.intent = &stripe.PaymentIntent{
			Status:   stripe.PaymentIntentStatusProcessing,
			Metadata: map[string]string{MetadataProductID: h.products.product.ID.String()},
		}

		confirmation, err := h.svc.Confirm(ctx, "pi_123")
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if confirmation.Succeeded || confirmation.DownloadURL != nil {
			t.Fatalf("expected pending confirmation without link, got %+v", confirmation)
		}
	})

	t.Run("missingMetadata", func(t *testing.T) {
		h := newHarness(t)
		h.payments.intent = &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}

		_, err := h.svc.Confirm(ctx, "pi_123")
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("emptyID", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Confirm(ctx, " ")
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
