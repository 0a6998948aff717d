package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/pixelvault/pixelvault-backend/pkg/money"
)

var templateFuncs = template.FuncMap{
	"currency": money.FormatCents,
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 3:04 PM")
	},
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(templateFuncs).Parse(`<html>
<body style="font-family: sans-serif;">
  <h1>Order Confirmation</h1>
  <p>Thanks for your purchase of <strong>{{.ProductName}}</strong>.</p>
  <p>{{.ProductDescription}}</p>
  <table>
    <tr><td>Order ID</td><td>{{.OrderID}}</td></tr>
    <tr><td>Purchased On</td><td>{{datetime .OrderedAt}}</td></tr>
    <tr><td>Price Paid</td><td>{{currency .PricePaidInCents}}</td></tr>
  </table>
  <p><a href="{{.DownloadURL}}">Download</a> (link valid for 24 hours)</p>
</body>
</html>`))

var historyTemplate = template.Must(template.New("history").Funcs(templateFuncs).Parse(`<html>
<body style="font-family: sans-serif;">
  <h1>Order History</h1>
  {{range .Orders}}
  <div style="margin-bottom: 16px;">
    <h2>{{.ProductName}}</h2>
    <table>
      <tr><td>Order ID</td><td>{{.OrderID}}</td></tr>
      <tr><td>Purchased On</td><td>{{datetime .OrderedAt}}</td></tr>
      <tr><td>Price Paid</td><td>{{currency .PricePaidInCents}}</td></tr>
    </table>
    <p><a href="{{.DownloadURL}}">Download</a> (link valid for 24 hours)</p>
  </div>
  {{end}}
</body>
</html>`))

func renderReceipt(email ReceiptEmail) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, email); err != nil {
		return "", fmt.Errorf("render receipt email: %w", err)
	}
	return buf.String(), nil
}

func renderHistory(email HistoryEmail) (string, error) {
	var buf bytes.Buffer
	if err := historyTemplate.Execute(&buf, email); err != nil {
		return "", fmt.Errorf("render history email: %w", err)
	}
	return buf.String(), nil
}
