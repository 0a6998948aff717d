package controllers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	"github.com/pixelvault/pixelvault-backend/internal/catalog"
	"github.com/pixelvault/pixelvault-backend/internal/downloads"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

// DownloadExpiredPath is where invalid or expired download tokens land.
const DownloadExpiredPath = "/products/download/expired"

// DownloadProduct streams the purchased file for a valid download token.
// Invalid and expired tokens redirect to the expired page rather than
// erroring out.
func DownloadProduct(svc downloads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "download service unavailable"))
			return
		}

		token, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "token")))
		if err != nil {
			http.Redirect(w, r, DownloadExpiredPath, http.StatusFound)
			return
		}

		attachment, err := svc.Resolve(r.Context(), token)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				http.Redirect(w, r, DownloadExpiredPath, http.StatusFound)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serveAttachment(w, r, logg, attachment.Filename, attachment.Path)
	}
}

// DownloadExpired is the landing endpoint for dead download links.
func DownloadExpired() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccessStatus(w, http.StatusGone, map[string]string{
			"message": "This download link has expired. Email yourself a new one from your order history.",
		})
	}
}

// AdminDownloadProduct streams a product file without a token. The admin
// surface sits behind basic auth so no verification row is needed.
func AdminDownloadProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		product, err := svc.FindProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := product.Name + filepath.Ext(product.FilePath)
		serveAttachment(w, r, logg, filename, product.FilePath)
	}
}

func serveAttachment(w http.ResponseWriter, r *http.Request, logg *logger.Logger, filename, path string) {
	file, err := os.Open(path)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open product file"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat product file"))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	if _, err := io.Copy(w, file); err != nil && logg != nil {
		logg.Warn(logg.WithField(r.Context(), "file", path), "download stream interrupted")
	}
}
