package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	checkoutsvc "github.com/pixelvault/pixelvault-backend/internal/checkout"
	ordersvc "github.com/pixelvault/pixelvault-backend/internal/orders"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

type ChargeService interface {
	HandleChargeSucceeded(ctx context.Context, input ordersvc.ChargeSucceededInput) (*models.Order, error)
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook ingests successful charges. Every delivered event is
// recorded on its own; Stripe retries on any non-2xx status.
func StripeWebhook(svc ChargeService, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stripe signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithStripeEventID(ctx, event.ID)
		}

		if event.Type != stripe.EventTypeChargeSucceeded {
			responses.WriteSuccess(w, nil)
			return
		}
		if event.Data == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required"))
			return
		}

		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event"))
			return
		}

		input, err := chargeInput(&charge)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.HandleChargeSucceeded(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, order.ID.String()), "stripe charge recorded")
		}
		responses.WriteSuccess(w, nil)
	}
}

func chargeInput(charge *stripe.Charge) (ordersvc.ChargeSucceededInput, error) {
	productID, err := uuid.Parse(strings.TrimSpace(charge.Metadata[checkoutsvc.MetadataProductID]))
	if err != nil {
		return ordersvc.ChargeSucceededInput{}, pkgerrors.New(pkgerrors.CodeValidation, "product id missing from charge metadata")
	}

	input := ordersvc.ChargeSucceededInput{
		ProductID:        productID,
		PricePaidInCents: int(charge.Amount),
	}

	if raw := strings.TrimSpace(charge.Metadata[checkoutsvc.MetadataDiscountCodeID]); raw != "" {
		codeID, err := uuid.Parse(raw)
		if err != nil {
			return ordersvc.ChargeSucceededInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount code id in charge metadata")
		}
		input.DiscountCodeID = &codeID
	}

	if charge.BillingDetails != nil {
		input.Email = strings.TrimSpace(charge.BillingDetails.Email)
	}

	return input, nil
}
