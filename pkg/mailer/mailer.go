package mailer

import (
	"context"
	"time"
)

// ReceiptEmail carries everything the purchase confirmation renders.
type ReceiptEmail struct {
	To                 string
	OrderID            string
	OrderedAt          time.Time
	PricePaidInCents   int
	ProductName        string
	ProductDescription string
	DownloadURL        string
}

// HistoryOrder is one purchased product inside an order-history email.
type HistoryOrder struct {
	OrderID          string
	OrderedAt        time.Time
	PricePaidInCents int
	ProductName      string
	DownloadURL      string
}

// HistoryEmail carries the full order history for one customer.
type HistoryEmail struct {
	To     string
	Orders []HistoryOrder
}

// Mailer is the transactional email collaborator.
type Mailer interface {
	SendPurchaseReceipt(ctx context.Context, email ReceiptEmail) error
	SendOrderHistory(ctx context.Context, email HistoryEmail) error
}
