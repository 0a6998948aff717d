package orders

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pixelvault/pixelvault-backend/pkg/db"
	"github.com/pixelvault/pixelvault-backend/pkg/db/models"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
	"github.com/pixelvault/pixelvault-backend/pkg/mailer"
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

type fakeProductFinder struct {
	db *gorm.DB
}

func (f *fakeProductFinder) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := f.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &product, nil
}

type fakeDownloads struct {
	baseURL string
	failTx  bool
}

func (f *fakeDownloads) Issue(ctx context.Context, productID uuid.UUID) (*models.DownloadVerification, error) {
	return f.IssueTx(ctx, nil, productID)
}

func (f *fakeDownloads) IssueTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.DownloadVerification, error) {
	if f.failTx {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db: insert download verification")
	}
	verification := &models.DownloadVerification{
		ID:        uuid.New(),
		ProductID: productID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if tx != nil {
		if err := tx.WithContext(ctx).Create(verification).Error; err != nil {
			return nil, err
		}
	}
	return verification, nil
}

func (f *fakeDownloads) DownloadURL(token uuid.UUID) string {
	return f.baseURL + "/products/download/" + token.String()
}

type fakeMailer struct {
	mu       sync.Mutex
	receipts []mailer.ReceiptEmail
	history  []mailer.HistoryEmail
	fail     bool
}

func (f *fakeMailer) SendPurchaseReceipt(_ context.Context, email mailer.ReceiptEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp unavailable")
	}
	f.receipts = append(f.receipts, email)
	return nil
}

func (f *fakeMailer) SendOrderHistory(_ context.Context, email mailer.HistoryEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp unavailable")
	}
	f.history = append(f.history, email)
	return nil
}

type testHarness struct {
	svc       *service
	repo      *Repository
	conn      *gorm.DB
	mail      *fakeMailer
	downloads *fakeDownloads
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	mail := &fakeMailer{}
	dl := &fakeDownloads{baseURL: "https://store.example.com"}
	logg := logger.New(logger.Options{Output: io.Discard})
	svc, err := NewService(repo, db.NewFromConn(conn), &fakeProductFinder{db: conn}, dl, mail, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testHarness{svc: svc.(*service), repo: repo, conn: conn, mail: mail, downloads: dl}
}

func mustCreateProduct(t *testing.T, tx *gorm.DB, name string, priceInCents int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                     uuid.New(),
		Name:                   name,
		Description:            fmt.Sprintf("%s description", name),
		PriceInCents:           priceInCents,
		FilePath:               "products/file.zip",
		ImagePath:              "public/products/image.png",
		IsAvailableForPurchase: true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustCreateDiscountCode(t *testing.T, tx *gorm.DB, code string, kind models.DiscountKind, amount int) *models.DiscountCode {
	t.Helper()
	record := &models.DiscountCode{
		ID:             uuid.New(),
		Code:           code,
		DiscountKind:   kind,
		DiscountAmount: amount,
		AllProducts:    true,
		IsActive:       true,
	}
	if err := tx.Create(record).Error; err != nil {
		t.Fatalf("create discount code: %v", err)
	}
	return record
}
