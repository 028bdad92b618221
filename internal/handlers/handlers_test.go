package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/armansyah-dev/inventaris/internal/apperr"
)

func TestDependentGuard(t *testing.T) {
	if err := dependentGuard(0, "category", "sub-categories"); err != nil {
		t.Errorf("no dependents should allow delete, got %v", err)
	}

	err := dependentGuard(3, "category", "sub-categories")
	if err == nil {
		t.Fatal("expected conflict with live dependents")
	}
	if _, ok := err.(*apperr.Conflict); !ok {
		t.Errorf("expected *apperr.Conflict, got %T", err)
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"abc", 0, true},
		{"-3", 0, true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/items/"+tt.raw, nil)
		req = mux.SetURLVars(req, map[string]string{"id": tt.raw})

		id, err := pathID(req)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.raw, err)
		}
		if id != tt.want {
			t.Errorf("%s: got %d, want %d", tt.raw, id, tt.want)
		}
	}
}

// itemForm builds a multipart item submission
func itemForm(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}
	w.Close()

	req := httptest.NewRequest("POST", "/api/items", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestParseItemForm(t *testing.T) {
	req := itemForm(t, map[string]string{
		"user_id":         "1",
		"category_id":     "2",
		"sub_category_id": "3",
		"document_number": "BA/010/2025",
		"source":          "Hibah",
		"line_items":      `[{"name":"Pen","unit_price":2.5,"quantity":10,"unit":"pcs"}]`,
	})

	in, err := parseItemForm(req)
	if err != nil {
		t.Fatalf("Failed to parse form: %v", err)
	}
	if in.UserID != 1 || in.CategoryID != 2 || in.SubCategoryID != 3 {
		t.Errorf("reference ids mismatch: %+v", in)
	}
	if in.DocumentNumber != "BA/010/2025" {
		t.Errorf("document_number mismatch: %s", in.DocumentNumber)
	}
	if len(in.LineItems) != 1 || in.LineItems[0].Name != "Pen" || in.LineItems[0].Quantity != 10 {
		t.Errorf("line items mismatch: %+v", in.LineItems)
	}
	if in.Attachment != nil {
		t.Error("no attachment was sent")
	}
}

func TestParseItemFormRejections(t *testing.T) {
	base := map[string]string{
		"user_id":         "1",
		"category_id":     "2",
		"sub_category_id": "3",
		"document_number": "BA/010/2025",
		"source":          "Hibah",
		"line_items":      `[{"name":"Pen","unit_price":2.5,"quantity":10,"unit":"pcs"}]`,
	}

	tests := []struct {
		name      string
		mutate    func(map[string]string)
		wantField string
	}{
		{
			name:      "non-numeric user id",
			mutate:    func(m map[string]string) { m["user_id"] = "x" },
			wantField: "user_id",
		},
		{
			name:      "missing line items",
			mutate:    func(m map[string]string) { delete(m, "line_items") },
			wantField: "line_items",
		},
		{
			name:      "line items not JSON",
			mutate:    func(m map[string]string) { m["line_items"] = "not json" },
			wantField: "line_items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := make(map[string]string, len(base))
			for k, v := range base {
				fields[k] = v
			}
			tt.mutate(fields)

			_, err := parseItemForm(itemForm(t, fields))
			if err == nil {
				t.Fatal("expected validation error")
			}
			v, ok := err.(*apperr.Validation)
			if !ok {
				t.Fatalf("expected *apperr.Validation, got %T", err)
			}
			if _, found := v.Fields[tt.wantField]; !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, v.Fields)
			}
		})
	}
}

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", &apperr.NotFound{Entity: "item", ID: 1}, http.StatusNotFound},
		{"conflict", &apperr.Conflict{Message: "duplicate"}, http.StatusConflict},
		{"attachment", &apperr.AttachmentRejected{Reason: "too big"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondAppError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body["success"] != false {
				t.Error("success should be false")
			}
			if body["message"] == "" {
				t.Error("message should be set")
			}
		})
	}
}

func TestRespondAppErrorValidationCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	respondAppError(rec, apperr.NewValidation("line_items.2.quantity", "quantity must be at least 1"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rec.Code)
	}

	var body struct {
		Success bool              `json:"success"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Errors["line_items.2.quantity"] == "" {
		t.Errorf("field error map missing entry: %v", body.Errors)
	}
}
