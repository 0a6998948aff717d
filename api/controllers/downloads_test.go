package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/internal/downloads"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
)

type stubDownloadService struct {
	attachment *downloads.Attachment
}

func (s *stubDownloadService) Issue(ctx context.Context, productID uuid.UUID) (*models.DownloadVerification, error) {
	return nil, nil
}

func (s *stubDownloadService) IssueTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error) {
	return nil, nil
}

func (s *stubDownloadService) Resolve(ctx context.Context, token uuid.UUID) (*downloads.Attachment, error) {
	if s.attachment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "download link expired or not found")
	}
	return s.attachment, nil
}

func (s *stubDownloadService) DownloadURL(token uuid.UUID) string {
	return "http://localhost/products/download/" + token.String()
}

func (s *stubDownloadService) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestDownloadProductStreamsAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.zip")
	if err := os.WriteFile(path, []byte("zip bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	svc := &stubDownloadService{attachment: &downloads.Attachment{
		Filename: "Synth Pack.zip",
		Path:     path,
		Size:     int64(len("zip bytes")),
	}}
	handler := DownloadProduct(svc, nil)

	token := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/products/download/"+token.String(), nil)
	req = withURLParam(req, "token", token.String())
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Synth Pack.zip"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "9" {
		t.Fatalf("unexpected length %q", got)
	}
	if rec.Body.String() != "zip bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestDownloadProductRedirectsExpiredToken(t *testing.T) {
	handler := DownloadProduct(&stubDownloadService{}, nil)

	token := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/products/download/"+token.String(), nil)
	req = withURLParam(req, "token", token.String())
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != DownloadExpiredPath {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestDownloadProductRedirectsMalformedToken(t *testing.T) {
	handler := DownloadProduct(&stubDownloadService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/download/garbage", nil)
	req = withURLParam(req, "token", "garbage")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
}

func TestAdminDownloadProductStreamsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stored-file.zip")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	productID := uuid.New()
	svc := &stubCatalogService{product: &models.Product{
		ID:       productID,
		Name:     "Drum Kit",
		FilePath: path,
	}}
	handler := AdminDownloadProduct(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/products/"+productID.String()+"/download", nil)
	req = withURLParam(req, "productId", productID.String())
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Drum Kit.zip"` {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestAdminDownloadProductNotFound(t *testing.T) {
	handler := AdminDownloadProduct(&stubCatalogService{}, nil)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/products/"+id.String()+"/download", nil)
	req = withURLParam(req, "productId", id.String())
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
