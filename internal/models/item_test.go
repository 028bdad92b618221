package models

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"
)

func TestLineItemsColumnRoundTrip(t *testing.T) {
	expiry := "2026-03-31"

	tests := []struct {
		name  string
		lines []LineItem
	}{
		{
			name: "single line without expiry",
			lines: []LineItem{
				{Name: "Pen", UnitPrice: 5000, Quantity: 3, Unit: "pcs"},
			},
		},
		{
			name: "expiry date set",
			lines: []LineItem{
				{Name: "Toner", UnitPrice: 250000, Quantity: 1, Unit: "box", ExpiryDate: &expiry},
			},
		},
		{
			name: "order preserved across multiple lines",
			lines: []LineItem{
				{Name: "Paper", UnitPrice: 30000, Quantity: 1, Unit: "rim"},
				{Name: "Pen", UnitPrice: 5000, Quantity: 3, Unit: "pcs", ExpiryDate: &expiry},
				{Name: "Stapler", UnitPrice: 15000, Quantity: 2, Unit: "pcs"},
			},
		},
		{
			name:  "empty list",
			lines: []LineItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := datatypes.NewJSONSlice(tt.lines)

			value, err := stored.Value()
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}

			var loaded datatypes.JSONSlice[LineItem]
			if err := loaded.Scan(value); err != nil {
				t.Fatalf("Scan() error: %v", err)
			}

			if len(loaded) != len(tt.lines) {
				t.Fatalf("expected %d lines after round trip, got %d", len(tt.lines), len(loaded))
			}
			for i := range tt.lines {
				if !reflect.DeepEqual(loaded[i], tt.lines[i]) {
					t.Errorf("line %d changed across round trip: got %+v, want %+v", i, loaded[i], tt.lines[i])
				}
			}
		})
	}
}

func TestLineItemsColumnScanString(t *testing.T) {
	raw := `[{"name":"Pen","unit_price":5000,"quantity":3,"unit":"pcs"}]`

	var loaded datatypes.JSONSlice[LineItem]
	if err := loaded.Scan(raw); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 line, got %d", len(loaded))
	}
	if loaded[0].Name != "Pen" || loaded[0].Quantity != 3 {
		t.Errorf("unexpected line after scan: %+v", loaded[0])
	}
	if loaded[0].ExpiryDate != nil {
		t.Errorf("expected nil expiry_date, got %q", *loaded[0].ExpiryDate)
	}
}
