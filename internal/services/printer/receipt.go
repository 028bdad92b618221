// Package printer renders goods-receipt PDFs for item submissions.
package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/armansyah-dev/inventaris/internal/models"
)

// GenerateReceiptPDF creates an A4 goods-receipt for one item: a header
// with the submission metadata, the line-item table, the totals row and
// a QR code carrying the document number.
func GenerateReceiptPDF(item *models.Item) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(150, 10, "Goods Receipt", "", 0, "L", false, 0, "")

	// QR code with the document number, top right
	qrPng, err := qrcode.Encode(item.DocumentNumber, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("doc_qr", opts, bytes.NewReader(qrPng))
	pdf.ImageOptions("doc_qr", 165, 12, 28, 28, false, opts, 0, "")
	pdf.Ln(14)

	// Header block
	pdf.SetFont("Arial", "", 10)
	header := [][2]string{
		{"Document Number", item.DocumentNumber},
		{"Source", item.Source},
		{"Date", item.CreatedAt.Format("2006-01-02")},
	}
	if item.Category != nil {
		header = append(header, [2]string{"Category", fmt.Sprintf("%s - %s", item.Category.Code, item.Category.Name)})
	}
	if item.SubCategory != nil {
		header = append(header, [2]string{"Sub-Category", item.SubCategory.Name})
	}
	if item.User != nil {
		header = append(header, [2]string{"Recorded By", item.User.Name})
	}
	header = append(header, [2]string{"Price Ceiling", fmt.Sprintf("%.2f", item.PriceCeiling)})

	for _, row := range header {
		pdf.CellFormat(40, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(110, 6, ": "+row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Line-item table
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(70, 7, "Name", "1", 0, "L", true, 0, "")
	pdf.CellFormat(28, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(15, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 7, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(37, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for i, l := range item.LineItems {
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, l.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.2f", l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, l.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(37, 6, fmt.Sprintf("%.2f", l.Total()), "1", 1, "R", false, 0, "")
	}

	// Totals row
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(123, 7, fmt.Sprintf("Total (%d items)", item.TotalItems), "1", 0, "R", false, 0, "")
	pdf.CellFormat(57, 7, fmt.Sprintf("%.2f", item.TotalPrice), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
