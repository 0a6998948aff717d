package controllers

import (
	"net/http"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	"github.com/pixelvault/pixelvault-backend/api/validators"
	"github.com/pixelvault/pixelvault-backend/internal/catalog"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

const (
	maxProductNameLen        = 200
	maxProductDescriptionLen = 5000
)

// AdminListProducts returns every product with its order count.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// AdminCreateProduct accepts a multipart form with the product fields
// plus the content file and preview image.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		if err := validators.ParseMultipartForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := validators.FormInt(r, "priceInCents")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, err := validators.RequireFormFile(r, "file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := validators.RequireFormFile(r, "image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:         validators.SanitizeString(r.FormValue("name"), maxProductNameLen),
			Description:  validators.SanitizeString(r.FormValue("description"), maxProductDescriptionLen),
			PriceInCents: price,
			File:         catalog.FileUpload{Filename: file.Filename, Content: file.Content},
			Image:        catalog.FileUpload{Filename: image.Filename, Content: image.Content},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct edits a product. File and image are optional and
// replace the stored assets when present.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := validators.ParseMultipartForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := validators.FormInt(r, "priceInCents")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:         validators.SanitizeString(r.FormValue("name"), maxProductNameLen),
			Description:  validators.SanitizeString(r.FormValue("description"), maxProductDescriptionLen),
			PriceInCents: price,
		}

		if file, err := validators.ReadFormFile(r, "file"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if file != nil {
			input.File = &catalog.FileUpload{Filename: file.Filename, Content: file.Content}
		}

		if image, err := validators.ReadFormFile(r, "image"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if image != nil {
			input.Image = &catalog.FileUpload{Filename: image.Filename, Content: image.Content}
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type setAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// AdminSetProductAvailability shows or hides a product on the storefront.
func AdminSetProductAvailability(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetAvailability(r.Context(), productID, *payload.Available); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"available": *payload.Available})
	}
}

// AdminDeleteProduct removes a product that has never been ordered.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
