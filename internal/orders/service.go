package orders

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/db"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
	"github.com/pixelvault/pixelvault-backend/pkg/mailer"
	"github.com/pixelvault/pixelvault-backend/pkg/money"
	"github.com/pixelvault/pixelvault-backend/pkg/pagination"
)

// HistoryMessage is returned for both known and unknown emails so the
// endpoint does not reveal which addresses have accounts.
const HistoryMessage = "Check your email to view your order history and download your products."

// ChargeSucceededInput carries the fields extracted from a Stripe charge.
type ChargeSucceededInput struct {
	ProductID        uuid.UUID
	DiscountCodeID   *uuid.UUID
	Email            string
	PricePaidInCents int
}

// Service ingests successful payments and serves admin order views.
type Service interface {
	HandleChargeSucceeded(ctx context.Context, input ChargeSucceededInput) (*models.Order, error)
	EmailOrderHistory(ctx context.Context, email string) error
	ListOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	ListCustomers(ctx context.Context) ([]CustomerDTO, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	Dashboard(ctx context.Context) (*DashboardDTO, error)
}

type productFinder interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type downloadIssuer interface {
	Issue(ctx context.Context, productID uuid.UUID) (*models.DownloadVerification, error)
	IssueTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error)
	DownloadURL(token uuid.UUID) string
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	products  productFinder
	downloads downloadIssuer
	mail      mailer.Mailer
	logg      *logger.Logger
}

// NewService constructs an order service instance.
func NewService(repo *Repository, dbClient *db.Client, products productFinder, downloads downloadIssuer, mail mailer.Mailer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if downloads == nil {
		return nil, fmt.Errorf("download issuer required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		products:  products,
		downloads: downloads,
		mail:      mail,
		logg:      logg,
	}, nil
}

// HandleChargeSucceeded records the purchase: the customer is upserted
// by email, the order and its download token commit together, and the
// coupon counter moves in the same transaction. The receipt email is
// best effort and never fails ingestion.
func (s *service) HandleChargeSucceeded(ctx context.Context, input ChargeSucceededInput) (*models.Order, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge has no billing email")
	}

	product, err := s.products.FindProduct(ctx, input.ProductID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge references an unknown product")
		}
		return nil, err
	}

	var (
		order        *models.Order
		verification *models.DownloadVerification
	)
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		user, err := txRepo.UpsertUserByEmail(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert user")
		}

		order, err = txRepo.CreateOrder(ctx, &models.Order{
			UserID:           user.ID,
			ProductID:        product.ID,
			DiscountCodeID:   input.DiscountCodeID,
			PricePaidInCents: input.PricePaidInCents,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}

		verification, err = s.downloads.IssueTx(ctx, tx, product.ID)
		if err != nil {
			return err
		}

		if input.DiscountCodeID != nil {
			if err := txRepo.IncrementDiscountUses(ctx, *input.DiscountCodeID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment discount uses")
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	receipt := mailer.ReceiptEmail{
		To:                 email,
		OrderID:            order.ID.String(),
		OrderedAt:          order.CreatedAt,
		PricePaidInCents:   order.PricePaidInCents,
		ProductName:        product.Name,
		ProductDescription: product.Description,
		DownloadURL:        s.downloads.DownloadURL(verification.ID),
	}
	if err := s.mail.SendPurchaseReceipt(ctx, receipt); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "failed to send purchase receipt", err)
	}

	return order, nil
}

// EmailOrderHistory sends the customer fresh download links for every
// past order. Unknown emails are a no-op so callers can always show the
// same confirmation message.
func (s *service) EmailOrderHistory(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}

	user, err := s.repo.FindUserWithOrders(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find user")
	}

	history := mailer.HistoryEmail{To: user.Email}
	for _, order := range user.Orders {
		if order.Product == nil {
			continue
		}
		verification, err := s.downloads.Issue(ctx, order.ProductID)
		if err != nil {
			return err
		}
		history.Orders = append(history.Orders, mailer.HistoryOrder{
			OrderID:          order.ID.String(),
			OrderedAt:        order.CreatedAt,
			PricePaidInCents: order.PricePaidInCents,
			ProductName:      order.Product.Name,
			DownloadURL:      s.downloads.DownloadURL(verification.ID),
		})
	}

	if err := s.mail.SendOrderHistory(ctx, history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order history email")
	}
	return nil
}

// ListOrders returns one cursor page of the admin sales table.
func (s *service) ListOrders(ctx context.Context, params pagination.Params) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListOrders(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &OrderListResult{Orders: []AdminOrderDTO{}}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Orders = append(result.Orders, NewAdminOrderDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

// DeleteOrder removes one order row.
func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete order")
	}
	return nil
}

// ListCustomers returns every customer with purchase totals.
func (s *service) ListCustomers(ctx context.Context) ([]CustomerDTO, error) {
	users, err := s.repo.ListUsersWithOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list users")
	}
	dtos := make([]CustomerDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, NewCustomerDTO(&users[i]))
	}
	return dtos, nil
}

// DeleteCustomer removes the customer and, by cascade, their orders.
func (s *service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete user")
	}
	return nil
}

// Dashboard aggregates the sales, customer, and product cards.
func (s *service) Dashboard(ctx context.Context) (*DashboardDTO, error) {
	totalInCents, orderCount, err := s.repo.SalesTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sales totals")
	}
	userCount, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count users")
	}
	active, inactive, err := s.repo.CountProductsByAvailability(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count products")
	}

	var averageInCents int64
	if userCount > 0 {
		averageInCents = totalInCents / userCount
	}

	return &DashboardDTO{
		Sales: DashboardSales{
			TotalInCents: totalInCents,
			Total:        money.FormatCents(int(totalInCents)),
			OrderCount:   orderCount,
		},
		Customers: DashboardCustomers{
			Count:               userCount,
			AverageSpendInCents: averageInCents,
			AverageSpendPerUser: money.FormatCents(int(averageInCents)),
		},
		Products: DashboardProducts{
			ActiveCount:   active,
			InactiveCount: inactive,
		},
	}, nil
}
