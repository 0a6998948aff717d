package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/pagination"
)

func TestHandleChargeSucceeded(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Synth Pack", 1000)
	code := mustCreateDiscountCode(t, h.conn, "TWOOFF", models.DiscountKindFixed, 2)

	order, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
		ProductID:        product.ID,
		DiscountCodeID:   &code.ID,
		Email:            "buyer@example.com",
		PricePaidInCents: 800,
	})
	if err != nil {
		t.Fatalf("handle charge: %v", err)
	}
	if order.PricePaidInCents != 800 {
		t.Fatalf("expected price paid 800, got %d", order.PricePaidInCents)
	}

	var user models.User
	if err := h.conn.First(&user, "email = ?", "buyer@example.com").Error; err != nil {
		t.Fatalf("expected user to be created: %v", err)
	}
	if order.UserID != user.ID {
		t.Fatal("expected order to belong to the upserted user")
	}

	var orderCount int64
	if err := h.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected exactly one order, got %d", orderCount)
	}

	var stored models.DiscountCode
	if err := h.conn.First(&stored, "id = ?", code.ID).Error; err != nil {
		t.Fatalf("load discount code: %v", err)
	}
	if stored.Uses != 1 {
		t.Fatalf("expected uses incremented to 1, got %d", stored.Uses)
	}

	var verificationCount int64
	if err := h.conn.Model(&models.DownloadVerification{}).Where("product_id = ?", product.ID).Count(&verificationCount).Error; err != nil {
		t.Fatalf("count verifications: %v", err)
	}
	if verificationCount != 1 {
		t.Fatalf("expected one download verification, got %d", verificationCount)
	}

	if len(h.mail.receipts) != 1 {
		t.Fatalf("expected one receipt email, got %d", len(h.mail.receipts))
	}
	receipt := h.mail.receipts[0]
	if receipt.To != "buyer@example.com" || receipt.ProductName != "Synth Pack" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if receipt.DownloadURL == "" {
		t.Fatal("expected a download link on the receipt")
	}
}

func TestHandleChargeSucceededRepeatEvents(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)

	input := ChargeSucceededInput{
		ProductID:        product.ID,
		Email:            "repeat@example.com",
		PricePaidInCents: 1000,
	}
	for i := 0; i < 2; i++ {
		if _, err := h.svc.HandleChargeSucceeded(ctx, input); err != nil {
			t.Fatalf("handle charge %d: %v", i, err)
		}
	}

	// Each delivered event records its own order; deduplication is the
	// sender's concern.
	var orderCount int64
	if err := h.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 2 {
		t.Fatalf("expected 2 orders, got %d", orderCount)
	}

	var userCount int64
	if err := h.conn.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 1 {
		t.Fatalf("expected a single user row, got %d", userCount)
	}
}

func TestHandleChargeSucceededValidation(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)

	t.Run("missingEmail", func(t *testing.T) {
		_, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
			ProductID:        product.ID,
			PricePaidInCents: 1000,
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("unknownProduct", func(t *testing.T) {
		_, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
			ProductID:        uuid.New(),
			Email:            "buyer@example.com",
			PricePaidInCents: 1000,
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestHandleChargeSucceededRollsBackOnTokenFailure(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)
	h.downloads.failTx = true

	_, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
		ProductID:        product.ID,
		Email:            "buyer@example.com",
		PricePaidInCents: 1000,
	})
	if err == nil {
		t.Fatal("expected ingestion to fail")
	}

	var orderCount int64
	if err := h.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected rollback to leave no orders, got %d", orderCount)
	}
	var userCount int64
	if err := h.conn.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 0 {
		t.Fatalf("expected rollback to leave no users, got %d", userCount)
	}
}

func TestHandleChargeSucceededMailFailureStillRecords(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)
	h.mail.fail = true

	order, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
		ProductID:        product.ID,
		Email:            "buyer@example.com",
		PricePaidInCents: 1000,
	})
	if err != nil {
		t.Fatalf("expected ingestion to succeed despite mail failure, got %v", err)
	}
	if order == nil {
		t.Fatal("expected order")
	}
}

func TestEmailOrderHistory(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	t.Run("invalidEmail", func(t *testing.T) {
		err := h.svc.EmailOrderHistory(ctx, "not-an-email")
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("unknownEmailIsSilent", func(t *testing.T) {
		if err := h.svc.EmailOrderHistory(ctx, "ghost@example.com"); err != nil {
			t.Fatalf("expected nil error for unknown email, got %v", err)
		}
		if len(h.mail.history) != 0 {
			t.Fatal("expected no email for unknown address")
		}
	})

	t.Run("sendsFreshLinksForEveryOrder", func(t *testing.T) {
		product := mustCreateProduct(t, h.conn, "Pack A", 1000)
		other := mustCreateProduct(t, h.conn, "Pack B", 500)
		for _, p := range []*models.Product{product, other} {
			if _, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
				ProductID:        p.ID,
				Email:            "buyer@example.com",
				PricePaidInCents: p.PriceInCents,
			}); err != nil {
				t.Fatalf("seed order: %v", err)
			}
		}

		if err := h.svc.EmailOrderHistory(ctx, "buyer@example.com"); err != nil {
			t.Fatalf("email order history: %v", err)
		}
		if len(h.mail.history) != 1 {
			t.Fatalf("expected one history email, got %d", len(h.mail.history))
		}
		sent := h.mail.history[0]
		if sent.To != "buyer@example.com" || len(sent.Orders) != 2 {
			t.Fatalf("unexpected history email %+v", sent)
		}
		for _, order := range sent.Orders {
			if order.DownloadURL == "" {
				t.Fatal("expected download link on every history order")
			}
		}
	})

	t.Run("mailerFailureSurfaces", func(t *testing.T) {
		h.mail.fail = true
		defer func() { h.mail.fail = false }()
		err := h.svc.EmailOrderHistory(ctx, "buyer@example.com")
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
			t.Fatalf("expected dependency error, got %v", err)
		}
	})
}

func TestListOrdersPagination(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)
	user := &models.User{ID: uuid.New(), Email: "buyer@example.com"}
	if err := h.conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		order := &models.Order{
			ID:               uuid.New(),
			UserID:           user.ID,
			ProductID:        product.ID,
			PricePaidInCents: 100 * (i + 1),
		}
		if err := h.conn.Create(order).Error; err != nil {
			t.Fatalf("create order: %v", err)
		}
		if err := h.conn.Model(order).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error; err != nil {
			t.Fatalf("backdate order: %v", err)
		}
	}

	first, err := h.svc.ListOrders(ctx, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(first.Orders))
	}
	if first.NextCursor == nil {
		t.Fatal("expected next cursor")
	}
	if first.Orders[0].PricePaidInCents != 500 {
		t.Fatalf("expected newest order first, got %d", first.Orders[0].PricePaidInCents)
	}
	if first.Orders[0].UserEmail != "buyer@example.com" || first.Orders[0].ProductName != "Pack" {
		t.Fatalf("expected preloaded associations, got %+v", first.Orders[0])
	}

	second, err := h.svc.ListOrders(ctx, pagination.Params{Limit: 2, Cursor: *first.NextCursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Orders) != 2 {
		t.Fatalf("expected 2 orders on second page, got %d", len(second.Orders))
	}
	if second.Orders[0].PricePaidInCents != 300 {
		t.Fatalf("expected continuation after cursor, got %d", second.Orders[0].PricePaidInCents)
	}

	third, err := h.svc.ListOrders(ctx, pagination.Params{Limit: 2, Cursor: *second.NextCursor})
	if err != nil {
		t.Fatalf("list third page: %v", err)
	}
	if len(third.Orders) != 1 || third.NextCursor != nil {
		t.Fatalf("expected final page with one order, got %+v", third)
	}

	if _, err := h.svc.ListOrders(ctx, pagination.Params{Cursor: "garbage"}); err == nil {
		t.Fatal("expected invalid cursor error")
	}
}

func TestDeleteOrderAndCustomer(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)
	order, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
		ProductID:        product.ID,
		Email:            "buyer@example.com",
		PricePaidInCents: 1000,
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	if err := h.svc.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if err := h.svc.DeleteOrder(ctx, order.ID); err == nil {
		t.Fatal("expected not found on second delete")
	}

	var user models.User
	if err := h.conn.First(&user, "email = ?", "buyer@example.com").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if err := h.svc.DeleteCustomer(ctx, user.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	if err := h.svc.DeleteCustomer(ctx, user.ID); err == nil {
		t.Fatal("expected not found on second delete")
	}
}

func TestListCustomers(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	product := mustCreateProduct(t, h.conn, "Pack", 1000)
	for i := 0; i < 2; i++ {
		if _, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
			ProductID:        product.ID,
			Email:            "big@example.com",
			PricePaidInCents: 1000,
		}); err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}
	if _, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
		ProductID:        product.ID,
		Email:            "small@example.com",
		PricePaidInCents: 500,
	}); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	customers, err := h.svc.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
	byEmail := map[string]CustomerDTO{}
	for _, c := range customers {
		byEmail[c.Email] = c
	}
	big := byEmail["big@example.com"]
	if big.OrderCount != 2 || big.TotalSpentInCents != 2000 {
		t.Fatalf("unexpected big spender stats %+v", big)
	}
	small := byEmail["small@example.com"]
	if small.TotalSpent != "$5" {
		t.Fatalf("expected formatted total $5, got %s", small.TotalSpent)
	}
}

func TestDashboard(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	t.Run("emptyDatabase", func(t *testing.T) {
		dto, err := h.svc.Dashboard(ctx)
		if err != nil {
			t.Fatalf("dashboard: %v", err)
		}
		if dto.Sales.OrderCount != 0 || dto.Sales.TotalInCents != 0 {
			t.Fatalf("expected empty sales, got %+v", dto.Sales)
		}
		if dto.Customers.AverageSpendInCents != 0 {
			t.Fatalf("expected zero average with no users, got %d", dto.Customers.AverageSpendInCents)
		}
	})

	t.Run("aggregates", func(t *testing.T) {
		product := mustCreateProduct(t, h.conn, "Active Pack", 1000)
		hidden := mustCreateProduct(t, h.conn, "Hidden Pack", 500)
		if err := h.conn.Model(hidden).Update("is_available_for_purchase", false).Error; err != nil {
			t.Fatalf("hide product: %v", err)
		}

		for i, email := range []string{"a@example.com", "b@example.com"} {
			if _, err := h.svc.HandleChargeSucceeded(ctx, ChargeSucceededInput{
				ProductID:        product.ID,
				Email:            email,
				PricePaidInCents: 1000 * (i + 1),
			}); err != nil {
				t.Fatalf("seed order: %v", err)
			}
		}

		dto, err := h.svc.Dashboard(ctx)
		if err != nil {
			t.Fatalf("dashboard: %v", err)
		}
		if dto.Sales.TotalInCents != 3000 || dto.Sales.OrderCount != 2 {
			t.Fatalf("unexpected sales %+v", dto.Sales)
		}
		if dto.Customers.Count != 2 || dto.Customers.AverageSpendInCents != 1500 {
			t.Fatalf("unexpected customers %+v", dto.Customers)
		}
		if dto.Products.ActiveCount != 1 || dto.Products.InactiveCount != 1 {
			t.Fatalf("unexpected products %+v", dto.Products)
		}
		if dto.Sales.Total != "$30" {
			t.Fatalf("expected formatted total $30, got %s", dto.Sales.Total)
		}
	})
}
