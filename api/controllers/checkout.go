package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	"github.com/pixelvault/pixelvault-backend/api/validators"
	checkoutsvc "github.com/pixelvault/pixelvault-backend/internal/checkout"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

type createIntentRequest struct {
	Email     string `json:"email" validate:"required,email"`
	ProductID string `json:"product_id" validate:"required,uuid"`
	Coupon    string `json:"coupon,omitempty"`
}

// CheckoutCreateIntent creates a Stripe payment intent for one product.
func CheckoutCreateIntent(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		intent, err := svc.CreateIntent(r.Context(), checkoutsvc.CreateIntentInput{
			Email:     strings.TrimSpace(payload.Email),
			ProductID: productID,
			Coupon:    strings.TrimSpace(payload.Coupon),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, intent)
	}
}

// CheckoutConfirm reports the outcome of a payment intent and hands out
// a download link once the charge succeeded.
func CheckoutConfirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		intentID := strings.TrimSpace(r.URL.Query().Get("payment_intent"))
		if intentID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment_intent required"))
			return
		}

		confirmation, err := svc.Confirm(r.Context(), intentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmation)
	}
}
