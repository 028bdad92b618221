package printer

import (
	"bytes"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/armansyah-dev/inventaris/internal/models"
)

func TestGenerateReceiptPDF(t *testing.T) {
	item := &models.Item{
		ID:             7,
		DocumentNumber: "BA/007/2025",
		Source:         "Pengadaan langsung",
		PriceCeiling:   100000,
		LineItems: datatypes.NewJSONSlice([]models.LineItem{
			{Name: "Pulpen", UnitPrice: 2500, Quantity: 10, Unit: "pcs"},
			{Name: "Kertas A4", UnitPrice: 50000, Quantity: 4, Unit: "rim"},
		}),
		TotalItems: 2,
		TotalPrice: 225000,
		CreatedAt:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		Category:   &models.Category{Code: "ATK", Name: "Alat Tulis Kantor"},
		SubCategory: &models.SubCategory{
			Name: "Alat Tulis",
		},
		User: &models.User{Name: "Administrator"},
	}

	pdf, err := GenerateReceiptPDF(item)
	if err != nil {
		t.Fatalf("Failed to generate receipt: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("receipt should not be empty")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output is not a PDF (starts with %q)", pdf[:4])
	}
}

func TestGenerateReceiptPDFWithoutRelations(t *testing.T) {
	// Receipts must render even when relations were not preloaded
	item := &models.Item{
		ID:             1,
		DocumentNumber: "BA/001/2025",
		Source:         "Hibah",
		LineItems:      datatypes.NewJSONSlice([]models.LineItem{{Name: "Map", UnitPrice: 1000, Quantity: 1, Unit: "pcs"}}),
		TotalItems:     1,
		TotalPrice:     1000,
	}

	pdf, err := GenerateReceiptPDF(item)
	if err != nil {
		t.Fatalf("Failed to generate receipt: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
