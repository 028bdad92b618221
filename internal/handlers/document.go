package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/models"
	"github.com/armansyah-dev/inventaris/internal/storage"
)

const (
	documentAttachmentDir = "document_attachments"
	maxMultipartMemory    = 8 << 20
)

// documentAttachmentRules constrain document uploads
var documentAttachmentRules = storage.Constraints{
	MaxSize:     5 << 20, // 5MB
	AllowedExts: []string{".doc", ".docx", ".zip"},
}

// documentInput holds a parsed document form submission
type documentInput struct {
	UserID         uint
	DocumentNumber string
	Source         string
}

// parseDocumentForm reads the multipart form for document create/update
func (r *Router) parseDocumentForm(req *http.Request) (*documentInput, error) {
	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, apperr.NewValidation("form", "request must be multipart/form-data")
	}

	fields := make(map[string]string)

	userID, err := strconv.ParseUint(req.FormValue("user_id"), 10, 32)
	if err != nil || userID == 0 {
		fields["user_id"] = "user_id is required"
	}
	documentNumber := req.FormValue("document_number")
	if documentNumber == "" {
		fields["document_number"] = "document_number is required"
	} else if len(documentNumber) > 255 {
		fields["document_number"] = "document_number must not exceed 255 characters"
	}
	source := req.FormValue("source")
	if source == "" {
		fields["source"] = "source is required"
	} else if len(source) > 255 {
		fields["source"] = "source must not exceed 255 characters"
	}

	if len(fields) > 0 {
		return nil, &apperr.Validation{Fields: fields}
	}

	return &documentInput{
		UserID:         uint(userID),
		DocumentNumber: documentNumber,
		Source:         source,
	}, nil
}

// resolveUser confirms the owning user exists
func (r *Router) resolveUser(req *http.Request, id uint) error {
	var user models.User
	if err := r.db.WithContext(req.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.ReferenceNotFound{Entity: "user", ID: id}
		}
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	return nil
}

// saveDocumentAttachment stores the uploaded file, if the form has one
func (r *Router) saveDocumentAttachment(req *http.Request) (*string, error) {
	file, header, err := req.FormFile("attachment")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewValidation("attachment", "attachment could not be read")
	}
	defer file.Close()

	path, err := r.files.Save(file, header, documentAttachmentDir, documentAttachmentRules)
	if err != nil {
		return nil, err
	}
	return &path, nil
}

// listDocuments returns all documents with their owner hydrated
func (r *Router) listDocuments(w http.ResponseWriter, req *http.Request) {
	var docs []models.Document
	if err := r.db.WithContext(req.Context()).Preload("User").Order("created_at DESC").Find(&docs).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to fetch documents: %w", err))
		return
	}
	respondData(w, http.StatusOK, docs)
}

// getDocument returns a single document by ID
func (r *Router) getDocument(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	var doc models.Document
	if err := r.db.WithContext(req.Context()).Preload("User").First(&doc, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "document", ID: id})
		return
	}
	respondData(w, http.StatusOK, doc)
}

// createDocument registers a new document, storing the attachment first
// and removing it again if the row write fails
func (r *Router) createDocument(w http.ResponseWriter, req *http.Request) {
	input, err := r.parseDocumentForm(req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if err := r.resolveUser(req, input.UserID); err != nil {
		respondAppError(w, err)
		return
	}

	path, err := r.saveDocumentAttachment(req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	doc := models.Document{
		UserID:         input.UserID,
		DocumentNumber: input.DocumentNumber,
		Source:         input.Source,
		AttachmentPath: path,
	}
	if err := r.db.WithContext(req.Context()).Create(&doc).Error; err != nil {
		if path != nil {
			if rmErr := r.files.Remove(*path); rmErr != nil {
				log.Printf("⚠️  Failed to remove orphaned attachment %s: %v", *path, rmErr)
			}
		}
		respondAppError(w, fmt.Errorf("failed to create document: %w", err))
		return
	}

	if err := r.db.WithContext(req.Context()).Preload("User").First(&doc, doc.ID).Error; err != nil {
		log.Printf("⚠️  Failed to reload document %d: %v", doc.ID, err)
	}
	respondMessage(w, http.StatusCreated, doc, "Document created")
}

// updateDocument updates a document. A replacement attachment is stored
// before the old file is removed; cleanup failure does not fail the update.
func (r *Router) updateDocument(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	var doc models.Document
	if err := r.db.WithContext(req.Context()).First(&doc, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "document", ID: id})
		return
	}

	input, err := r.parseDocumentForm(req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if err := r.resolveUser(req, input.UserID); err != nil {
		respondAppError(w, err)
		return
	}

	newPath, err := r.saveDocumentAttachment(req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	oldPath := doc.AttachmentPath
	doc.UserID = input.UserID
	doc.DocumentNumber = input.DocumentNumber
	doc.Source = input.Source
	if newPath != nil {
		doc.AttachmentPath = newPath
	}

	if err := r.db.WithContext(req.Context()).Save(&doc).Error; err != nil {
		if newPath != nil {
			if rmErr := r.files.Remove(*newPath); rmErr != nil {
				log.Printf("⚠️  Failed to remove orphaned attachment %s: %v", *newPath, rmErr)
			}
		}
		respondAppError(w, fmt.Errorf("failed to update document: %w", err))
		return
	}

	if newPath != nil && oldPath != nil {
		if err := r.files.Remove(*oldPath); err != nil {
			log.Printf("⚠️  Failed to remove replaced attachment %s: %v", *oldPath, err)
		}
	}

	if err := r.db.WithContext(req.Context()).Preload("User").First(&doc, doc.ID).Error; err != nil {
		log.Printf("⚠️  Failed to reload document %d: %v", doc.ID, err)
	}
	respondMessage(w, http.StatusOK, doc, "Document updated")
}

// deleteDocument deletes a document and its attachment file, if any
func (r *Router) deleteDocument(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	var doc models.Document
	if err := r.db.WithContext(req.Context()).First(&doc, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "document", ID: id})
		return
	}

	if err := r.db.WithContext(req.Context()).Delete(&doc).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to delete document: %w", err))
		return
	}

	if doc.AttachmentPath != nil {
		if err := r.files.Remove(*doc.AttachmentPath); err != nil {
			log.Printf("⚠️  Failed to remove attachment %s: %v", *doc.AttachmentPath, err)
		}
	}

	respondMessage(w, http.StatusOK, nil, "Document deleted")
}
