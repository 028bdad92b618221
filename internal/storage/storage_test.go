package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/armansyah-dev/inventaris/internal/apperr"
)

var testRules = Constraints{
	MaxSize:     1024,
	AllowedExts: []string{".pdf", ".zip"},
}

// uploadRequest builds a multipart request carrying one file so tests can
// obtain a real multipart.File/FileHeader pair
func uploadRequest(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
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
		t.Fatalf("Failed to read form file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	file, header := uploadRequest(t, "report.pdf", []byte("pdf content"))

	path, err := store.Save(file, header, "item_attachments", testRules)
	if err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if !strings.HasPrefix(path, "item_attachments/") {
		t.Errorf("path should be relative to base dir, got %s", path)
	}
	if !strings.HasSuffix(path, ".pdf") {
		t.Errorf("stored file should keep the extension, got %s", path)
	}

	full := filepath.Join(store.baseDir, filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("Stored file missing: %v", err)
	}
	if string(data) != "pdf content" {
		t.Errorf("stored content mismatch: %q", data)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Error("file should be gone after Remove")
	}

	// Removing an already-gone path is not an error
	if err := store.Remove(path); err != nil {
		t.Errorf("Remove of missing file should be a no-op, got %v", err)
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	file, header := uploadRequest(t, "big.pdf", bytes.Repeat([]byte("a"), 2048))

	_, err = store.Save(file, header, "item_attachments", testRules)
	if err == nil {
		t.Fatal("expected oversized upload to be rejected")
	}
	if _, ok := err.(*apperr.AttachmentRejected); !ok {
		t.Errorf("expected *apperr.AttachmentRejected, got %T", err)
	}
}

func TestSaveRejectsDisallowedType(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	tests := []string{"script.exe", "archive.tar.gz", "noext"}
	for _, name := range tests {
		file, header := uploadRequest(t, name, []byte("content"))
		if _, err := store.Save(file, header, "item_attachments", testRules); err == nil {
			t.Errorf("%s: expected rejection", name)
		} else if _, ok := err.(*apperr.AttachmentRejected); !ok {
			t.Errorf("%s: expected *apperr.AttachmentRejected, got %T", name, err)
		}
	}
}

func TestRemoveRejectsEscapingPaths(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for _, path := range []string{"../outside.txt", "/etc/passwd"} {
		if err := store.Remove(path); err == nil {
			t.Errorf("%s: expected error for path escaping the base dir", path)
		}
	}
}
