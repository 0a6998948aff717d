package catalog

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pixelvault/pixelvault-backend/pkg/config"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 silent,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.DiscountCode{},
		&models.Order{},
		&models.DownloadVerification{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func newTestService(t *testing.T) (*service, *Repository) {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	storage, err := NewStorage(config.StorageConfig{
		FilesDir:  t.TempDir(),
		ImagesDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	logg := logger.New(logger.Options{Output: io.Discard})
	svc, err := NewService(repo, storage, nil, config.CacheConfig{StorefrontTTL: time.Hour}, couponFinderFunc(findNoCoupon), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service), repo
}

type couponFinderFunc func(ctx context.Context, code string, productID uuid.UUID) (*models.DiscountCode, error)

func (f couponFinderFunc) FindUsable(ctx context.Context, code string, productID uuid.UUID) (*models.DiscountCode, error) {
	return f(ctx, code, productID)
}

func findNoCoupon(context.Context, string, uuid.UUID) (*models.DiscountCode, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no usable discount code")
}

func mustCreateProduct(t *testing.T, tx *gorm.DB, name string, priceInCents int, available bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                     uuid.New(),
		Name:                   name,
		Description:            fmt.Sprintf("%s description", name),
		PriceInCents:           priceInCents,
		FilePath:               "products/file.zip",
		ImagePath:              "public/products/image.png",
		IsAvailableForPurchase: available,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustCreateOrder(t *testing.T, tx *gorm.DB, productID uuid.UUID, priceInCents int) *models.Order {
	t.Helper()
	user := &models.User{
		ID:    uuid.New(),
		Email: fmt.Sprintf("buyer_%s@example.com", uuid.NewString()[:8]),
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           user.ID,
		ProductID:        productID,
		PricePaidInCents: priceInCents,
	}
	if err := tx.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}
