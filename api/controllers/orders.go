package controllers

import (
	"net/http"
	"strings"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	"github.com/pixelvault/pixelvault-backend/api/validators"
	"github.com/pixelvault/pixelvault-backend/internal/orders"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

type emailHistoryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// EmailOrderHistory mails fresh download links for every past order.
// The response never reveals whether the address has an account.
func EmailOrderHistory(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload emailHistoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.EmailOrderHistory(r.Context(), strings.TrimSpace(payload.Email)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": orders.HistoryMessage})
	}
}
