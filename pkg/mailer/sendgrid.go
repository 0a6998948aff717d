package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/pixelvault/pixelvault-backend/pkg/config"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
)

const (
	receiptSubject = "Order Confirmation"
	historySubject = "Order History"
)

// SendgridMailer delivers transactional email through the Sendgrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	sender *mail.Email
}

func NewSendgridMailer(cfg config.SendgridConfig) (*SendgridMailer, error) {
	if cfg.APIKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sendgrid api key required")
	}
	if cfg.SenderEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sender email required")
	}
	return &SendgridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		sender: mail.NewEmail(cfg.SenderName, cfg.SenderEmail),
	}, nil
}

func (m *SendgridMailer) SendPurchaseReceipt(ctx context.Context, email ReceiptEmail) error {
	html, err := renderReceipt(email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt")
	}
	return m.send(ctx, email.To, receiptSubject, html)
}

func (m *SendgridMailer) SendOrderHistory(ctx context.Context, email HistoryEmail) error {
	html, err := renderHistory(email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render history")
	}
	return m.send(ctx, email.To, historySubject, html)
}

func (m *SendgridMailer) send(ctx context.Context, to, subject, html string) error {
	message := mail.NewSingleEmail(m.sender, subject, mail.NewEmail("", to), "", html)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sendgrid rejected email (status %d)", resp.StatusCode))
	}
	return nil
}
