package discounts

import (
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
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

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, priceInCents int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                     uuid.New(),
		Name:                   fmt.Sprintf("Test Pack %s", uuid.NewString()[:8]),
		Description:            "test product",
		PriceInCents:           priceInCents,
		FilePath:               "products/test.zip",
		ImagePath:              "public/products/test.png",
		IsAvailableForPurchase: true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
