package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	"github.com/pixelvault/pixelvault-backend/api/validators"
	"github.com/pixelvault/pixelvault-backend/internal/discounts"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

type createDiscountCodeRequest struct {
	Code           string   `json:"code" validate:"required"`
	DiscountKind   string   `json:"discount_kind" validate:"required"`
	DiscountAmount int      `json:"discount_amount" validate:"required,min=1"`
	AllProducts    bool     `json:"all_products"`
	ProductIDs     []string `json:"product_ids,omitempty" validate:"omitempty,dive,uuid"`
	ExpiresAt      *string  `json:"expires_at,omitempty"`
	Limit          *int     `json:"limit,omitempty" validate:"omitempty,min=1"`
}

// AdminListDiscountCodes returns current and expired coupons.
func AdminListDiscountCodes(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		result, err := svc.ListDiscountCodes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminCreateDiscountCode creates a coupon.
func AdminCreateDiscountCode(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload createDiscountCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.CreateDiscountCode(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, code)
	}
}

func (req createDiscountCodeRequest) toCreateInput() (discounts.CreateDiscountCodeInput, error) {
	input := discounts.CreateDiscountCodeInput{
		Code:           req.Code,
		DiscountKind:   req.DiscountKind,
		DiscountAmount: req.DiscountAmount,
		AllProducts:    req.AllProducts,
		Limit:          req.Limit,
	}

	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return discounts.CreateDiscountCodeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").WithDetails(map[string]any{"product_id": raw})
		}
		input.ProductIDs = append(input.ProductIDs, id)
	}

	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return discounts.CreateDiscountCodeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be RFC3339")
		}
		input.ExpiresAt = &expiresAt
	}

	return input, nil
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminSetDiscountCodeActive toggles a coupon on or off.
func AdminSetDiscountCodeActive(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		codeID, err := parseUUIDParam(r, "discountCodeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), codeID, *payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"active": *payload.Active})
	}
}

// AdminDeleteDiscountCode removes a coupon.
func AdminDeleteDiscountCode(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		codeID, err := parseUUIDParam(r, "discountCodeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteDiscountCode(r.Context(), codeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
