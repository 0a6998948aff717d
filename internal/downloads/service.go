package downloads

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelvault/pixelvault-backend/pkg/config"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
)

// Attachment describes the file a valid token unlocks.
type Attachment struct {
	// Filename is the customer-facing name, product name plus the
	// stored file's extension.
	Filename string
	Path     string
	Size     int64
}

// Service mints and resolves time-limited download tokens.
type Service interface {
	Issue(ctx context.Context, productID uuid.UUID) (*models.DownloadVerification, error)
	IssueTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error)
	Resolve(ctx context.Context, token uuid.UUID) (*Attachment, error)
	DownloadURL(token uuid.UUID) string
	PurgeExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo    *Repository
	baseURL string
	linkTTL time.Duration
	now     func() time.Time
}

// NewService constructs a download service instance.
func NewService(repo *Repository, appCfg config.AppConfig, downloadCfg config.DownloadConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("download repository required")
	}
	if downloadCfg.LinkTTL <= 0 {
		return nil, fmt.Errorf("download link ttl must be positive")
	}
	return &service{
		repo:    repo,
		baseURL: strings.TrimRight(appCfg.BaseURL, "/"),
		linkTTL: downloadCfg.LinkTTL,
		now:     time.Now,
	}, nil
}

// Issue mints a fresh token for the product.
func (s *service) Issue(ctx context.Context, productID uuid.UUID) (*models.DownloadVerification, error) {
	return s.issue(ctx, s.repo, productID)
}

// IssueTx mints a token inside an open transaction so the token and
// the order it belongs to commit together.
func (s *service) IssueTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error) {
	return s.issue(ctx, s.repo.WithTx(tx), productID)
}

func (s *service) issue(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.DownloadVerification, error) {
	verification := &models.DownloadVerification{
		ID:        uuid.New(),
		ProductID: productID,
		ExpiresAt: s.now().Add(s.linkTTL),
	}
	created, err := repo.Create(ctx, verification)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert download verification")
	}
	return created, nil
}

// Resolve exchanges a token for the attachment it unlocks. Expired and
// unknown tokens are indistinguishable to the caller.
func (s *service) Resolve(ctx context.Context, token uuid.UUID) (*Attachment, error) {
	verification, err := s.repo.FindValid(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "download link expired or not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find download verification")
	}
	if verification.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "download verification has no product")
	}

	info, err := os.Stat(verification.Product.FilePath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat product file")
	}

	ext := filepath.Ext(verification.Product.FilePath)
	return &Attachment{
		Filename: verification.Product.Name + ext,
		Path:     verification.Product.FilePath,
		Size:     info.Size(),
	}, nil
}

// DownloadURL renders the customer-facing link for a token.
func (s *service) DownloadURL(token uuid.UUID) string {
	return fmt.Sprintf("%s/products/download/%s", s.baseURL, url.PathEscape(token.String()))
}

// PurgeExpired removes stale tokens, used by the cleanup cron.
func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: purge download verifications")
	}
	return deleted, nil
}
