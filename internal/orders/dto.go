package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	"github.com/pixelvault/pixelvault-backend/pkg/money"
)

// AdminOrderDTO is one row of the admin sales table.
type AdminOrderDTO struct {
	ID               uuid.UUID `json:"id"`
	ProductName      string    `json:"product_name"`
	UserEmail        string    `json:"user_email"`
	PricePaidInCents int       `json:"price_paid_in_cents"`
	PricePaid        string    `json:"price_paid"`
	DiscountCode     *string   `json:"discount_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// OrderListResult is a cursor-paginated page of orders.
type OrderListResult struct {
	Orders     []AdminOrderDTO `json:"orders"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// CustomerDTO is one row of the admin customers table.
type CustomerDTO struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	OrderCount        int       `json:"order_count"`
	TotalSpentInCents int       `json:"total_spent_in_cents"`
	TotalSpent        string    `json:"total_spent"`
	CreatedAt         time.Time `json:"created_at"`
}

// DashboardDTO aggregates the three admin dashboard cards.
type DashboardDTO struct {
	Sales     DashboardSales     `json:"sales"`
	Customers DashboardCustomers `json:"customers"`
	Products  DashboardProducts  `json:"products"`
}

type DashboardSales struct {
	TotalInCents int64  `json:"total_in_cents"`
	Total        string `json:"total"`
	OrderCount   int64  `json:"order_count"`
}

type DashboardCustomers struct {
	Count               int64  `json:"count"`
	AverageSpendInCents int64  `json:"average_spend_in_cents"`
	AverageSpendPerUser string `json:"average_spend_per_user"`
}

type DashboardProducts struct {
	ActiveCount   int64 `json:"active_count"`
	InactiveCount int64 `json:"inactive_count"`
}

// NewAdminOrderDTO maps an order row with its preloaded associations.
func NewAdminOrderDTO(order *models.Order) AdminOrderDTO {
	dto := AdminOrderDTO{
		ID:               order.ID,
		PricePaidInCents: order.PricePaidInCents,
		PricePaid:        money.FormatCents(order.PricePaidInCents),
		CreatedAt:        order.CreatedAt,
	}
	if order.Product != nil {
		dto.ProductName = order.Product.Name
	}
	if order.User != nil {
		dto.UserEmail = order.User.Email
	}
	if order.DiscountCode != nil {
		code := order.DiscountCode.Code
		dto.DiscountCode = &code
	}
	return dto
}

// NewCustomerDTO maps a user row with its preloaded orders.
func NewCustomerDTO(user *models.User) CustomerDTO {
	total := 0
	for _, order := range user.Orders {
		total += order.PricePaidInCents
	}
	return CustomerDTO{
		ID:                user.ID,
		Email:             user.Email,
		OrderCount:        len(user.Orders),
		TotalSpentInCents: total,
		TotalSpent:        money.FormatCents(total),
		CreatedAt:         user.CreatedAt,
	}
}
