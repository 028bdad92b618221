package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/database"
	"github.com/armansyah-dev/inventaris/internal/models"
	"github.com/armansyah-dev/inventaris/internal/storage"
)

// freePort asks the kernel for an unused TCP port
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// newTestService boots a throwaway embedded PostgreSQL instance, migrates
// the schema and returns a service backed by it
func newTestService(t *testing.T) (*Service, *database.DB, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database-backed tests in short mode")
	}

	port := freePort(t)
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(filepath.Join(t.TempDir(), "pg")).
		Port(uint32(port)).
		Database("inventaris_test").
		Username("postgres").
		Password("postgres").
		Logger(io.Discard))
	if err := pg.Start(); err != nil {
		t.Fatalf("Failed to start embedded database: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Stop(); err != nil {
			t.Logf("Failed to stop embedded database: %v", err)
		}
	})

	dsn := fmt.Sprintf(
		"host=localhost port=%d user=postgres password=postgres dbname=inventaris_test sslmode=disable",
		port,
	)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("Failed to connect to embedded database: %v", err)
	}

	db := &database.DB{DB: gdb}
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.SubCategory{}, &models.Item{}); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	uploadDir := t.TempDir()
	files, err := storage.New(uploadDir)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	return NewService(db, files), db, uploadDir
}

// seedReferences inserts the user, category and sub-category a submission needs
func seedReferences(t *testing.T, db *database.DB, ceiling float64) (*models.User, *models.Category, *models.SubCategory) {
	t.Helper()

	user := &models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "not-a-real-hash",
		Name:     "Administrator",
		Role:     "admin",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	category := &models.Category{Code: "ATK", Name: "Office supplies"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}

	subCategory := &models.SubCategory{
		CategoryID:   category.ID,
		Name:         "Stationery",
		PriceCeiling: &ceiling,
	}
	if err := db.Create(subCategory).Error; err != nil {
		t.Fatalf("Failed to seed sub-category: %v", err)
	}

	return user, category, subCategory
}

// testAttachment builds a real multipart upload carrying content
func testAttachment(t *testing.T, filename string, content []byte) *Attachment {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("attachment", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	file, header, err := req.FormFile("attachment")
	if err != nil {
		t.Fatalf("Failed to read form file back: %v", err)
	}
	t.Cleanup(func() { file.Close() })

	return &Attachment{File: file, Header: header}
}

func submitInput(user *models.User, category *models.Category, subCategory *models.SubCategory, documentNumber string) *SubmitItemInput {
	return &SubmitItemInput{
		UserID:         user.ID,
		CategoryID:     category.ID,
		SubCategoryID:  subCategory.ID,
		DocumentNumber: documentNumber,
		Source:         "Procurement 2026",
		LineItems: []models.LineItem{
			{Name: "Pen", UnitPrice: 5000, Quantity: 3, Unit: "pcs"},
			{Name: "Paper", UnitPrice: 30000, Quantity: 1, Unit: "rim"},
		},
	}
}

func TestServicePersistence(t *testing.T) {
	svc, db, uploadDir := newTestService(t)
	user, category, subCategory := seedReferences(t, db, 100000)
	ctx := context.Background()

	t.Run("duplicate document number conflicts and keeps one row", func(t *testing.T) {
		in := submitInput(user, category, subCategory, "BA/100/2026")
		if _, err := svc.SubmitItem(ctx, in); err != nil {
			t.Fatalf("First submission failed: %v", err)
		}

		_, err := svc.SubmitItem(ctx, submitInput(user, category, subCategory, "BA/100/2026"))
		var conflict *apperr.Conflict
		if !errors.As(err, &conflict) {
			t.Fatalf("Expected conflict on duplicate document number, got %v", err)
		}

		var count int64
		if err := db.Model(&models.Item{}).Where("document_number = ?", "BA/100/2026").Count(&count).Error; err != nil {
			t.Fatalf("Failed to count items: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected exactly 1 row for the document number, got %d", count)
		}
	})

	t.Run("unknown sub-category persists nothing", func(t *testing.T) {
		in := submitInput(user, category, subCategory, "BA/101/2026")
		in.SubCategoryID = 99999

		_, err := svc.SubmitItem(ctx, in)
		var refErr *apperr.ReferenceNotFound
		if !errors.As(err, &refErr) {
			t.Fatalf("Expected reference-not-found, got %v", err)
		}
		if refErr.Entity != "sub_category" {
			t.Errorf("Expected sub_category reference error, got %q", refErr.Entity)
		}

		var count int64
		if err := db.Model(&models.Item{}).Where("document_number = ?", "BA/101/2026").Count(&count).Error; err != nil {
			t.Fatalf("Failed to count items: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected no rows persisted, got %d", count)
		}
	})

	t.Run("delete removes the row and the attachment file", func(t *testing.T) {
		in := submitInput(user, category, subCategory, "BA/102/2026")
		in.Attachment = testAttachment(t, "report.pdf", []byte("%PDF-1.4 dummy"))

		item, err := svc.SubmitItem(ctx, in)
		if err != nil {
			t.Fatalf("Submission failed: %v", err)
		}
		if item.AttachmentPath == nil {
			t.Fatal("Expected an attachment path on the created item")
		}
		onDisk := filepath.Join(uploadDir, filepath.FromSlash(*item.AttachmentPath))
		if _, err := os.Stat(onDisk); err != nil {
			t.Fatalf("Expected attachment on disk at %s: %v", onDisk, err)
		}

		if err := svc.DeleteItem(ctx, item.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
			t.Errorf("Expected attachment file to be removed, stat returned %v", err)
		}
		if _, err := svc.GetItem(ctx, item.ID); err == nil {
			t.Error("Expected the deleted item to be gone")
		}
	})

	t.Run("update recomputes totals and re-snapshots the ceiling", func(t *testing.T) {
		item, err := svc.SubmitItem(ctx, submitInput(user, category, subCategory, "BA/103/2026"))
		if err != nil {
			t.Fatalf("Submission failed: %v", err)
		}
		if item.PriceCeiling != 100000 {
			t.Fatalf("Expected snapshotted ceiling 100000, got %.2f", item.PriceCeiling)
		}

		otherCeiling := 15000000.0
		other := &models.SubCategory{
			CategoryID:   category.ID,
			Name:         "Electronics",
			PriceCeiling: &otherCeiling,
		}
		if err := db.Create(other).Error; err != nil {
			t.Fatalf("Failed to seed second sub-category: %v", err)
		}

		replacement := submitInput(user, category, other, "BA/103/2026")
		replacement.LineItems = []models.LineItem{
			{Name: "Printer", UnitPrice: 2500000, Quantity: 2, Unit: "pcs"},
		}

		updated, err := svc.UpdateItem(ctx, item.ID, replacement)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.TotalItems != 1 {
			t.Errorf("Expected recomputed total_items 1, got %d", updated.TotalItems)
		}
		if updated.TotalPrice != 5000000 {
			t.Errorf("Expected recomputed total_price 5000000, got %.2f", updated.TotalPrice)
		}
		if updated.PriceCeiling != 15000000 {
			t.Errorf("Expected re-snapshotted ceiling 15000000, got %.2f", updated.PriceCeiling)
		}
		if updated.SubCategoryID != other.ID {
			t.Errorf("Expected sub-category %d, got %d", other.ID, updated.SubCategoryID)
		}
	})
}
