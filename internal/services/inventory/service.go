// Package inventory implements the item aggregation workflow: a batch
// goods submission is validated against its category and sub-category,
// totals are computed from the line-item list, the attachment is stored,
// and the resulting record is persisted with its relationships.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/database"
	"github.com/armansyah-dev/inventaris/internal/models"
	"github.com/armansyah-dev/inventaris/internal/storage"
)

const (
	// PageSize is the fixed page size for item listings
	PageSize = 10

	itemAttachmentDir = "item_attachments"
	expiryDateLayout  = "2006-01-02"
)

// ItemAttachmentRules constrain item submission uploads
var ItemAttachmentRules = storage.Constraints{
	MaxSize:     2 << 20, // 2MB
	AllowedExts: []string{".pdf", ".doc", ".docx", ".zip"},
}

// Attachment is an uploaded file accompanying a submission
type Attachment struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// SubmitItemInput carries everything needed to create or fully replace an item
type SubmitItemInput struct {
	UserID         uint
	CategoryID     uint
	SubCategoryID  uint
	DocumentNumber string
	Source         string
	LineItems      []models.LineItem
	Attachment     *Attachment
}

// Service validates and persists item submissions
type Service struct {
	db    *database.DB
	files *storage.Store
}

// NewService creates the item aggregation service
func NewService(db *database.DB, files *storage.Store) *Service {
	return &Service{db: db, files: files}
}

// ComputeTotals returns the line-item count and the sum of line totals
func ComputeTotals(lines []models.LineItem) (int, float64) {
	var total float64
	for _, l := range lines {
		total += l.Total()
	}
	return len(lines), total
}

// ValidateInput checks every field of a submission and reports all
// violations at once, keyed by field path (line items by index, e.g.
// "line_items.2.quantity").
func ValidateInput(in *SubmitItemInput) error {
	fields := make(map[string]string)

	if in.UserID == 0 {
		fields["user_id"] = "user_id is required"
	}
	if in.CategoryID == 0 {
		fields["category_id"] = "category_id is required"
	}
	if in.SubCategoryID == 0 {
		fields["sub_category_id"] = "sub_category_id is required"
	}
	if in.DocumentNumber == "" {
		fields["document_number"] = "document_number is required"
	} else if len(in.DocumentNumber) > 200 {
		fields["document_number"] = "document_number must not exceed 200 characters"
	}
	if in.Source == "" {
		fields["source"] = "source is required"
	} else if len(in.Source) > 200 {
		fields["source"] = "source must not exceed 200 characters"
	}

	if len(in.LineItems) == 0 {
		fields["line_items"] = "at least one line item is required"
	}
	for i, l := range in.LineItems {
		if l.Name == "" {
			fields[fmt.Sprintf("line_items.%d.name", i)] = "name is required"
		}
		if l.UnitPrice < 0 {
			fields[fmt.Sprintf("line_items.%d.unit_price", i)] = "unit_price must not be negative"
		}
		if l.Quantity < 1 {
			fields[fmt.Sprintf("line_items.%d.quantity", i)] = "quantity must be at least 1"
		}
		if l.Unit == "" {
			fields[fmt.Sprintf("line_items.%d.unit", i)] = "unit is required"
		}
		if l.ExpiryDate != nil {
			if _, err := time.Parse(expiryDateLayout, *l.ExpiryDate); err != nil {
				fields[fmt.Sprintf("line_items.%d.expiry_date", i)] = "expiry_date must be a YYYY-MM-DD date"
			}
		}
	}

	if len(fields) > 0 {
		return &apperr.Validation{Fields: fields}
	}
	return nil
}

// SubmitItem validates a submission, snapshots the sub-category's price
// ceiling, computes totals, stores the attachment and persists the item.
// The attachment is written before the database row; if the row write
// fails the orphaned file is removed again.
func (s *Service) SubmitItem(ctx context.Context, in *SubmitItemInput) (*models.Item, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	subCat, err := s.resolveReferences(ctx, in)
	if err != nil {
		return nil, err
	}

	ceiling := snapshotCeiling(subCat)
	count, total := ComputeTotals(in.LineItems)
	warnAboveCeiling(in.DocumentNumber, ceiling, in.LineItems)

	item := &models.Item{
		UserID:         in.UserID,
		CategoryID:     in.CategoryID,
		SubCategoryID:  in.SubCategoryID,
		PriceCeiling:   ceiling,
		DocumentNumber: in.DocumentNumber,
		Source:         in.Source,
		LineItems:      datatypes.NewJSONSlice(in.LineItems),
		TotalItems:     count,
		TotalPrice:     total,
	}

	if in.Attachment != nil {
		path, err := s.files.Save(in.Attachment.File, in.Attachment.Header, itemAttachmentDir, ItemAttachmentRules)
		if err != nil {
			return nil, err
		}
		item.AttachmentPath = &path
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		// The row is the record of truth; don't leave an orphaned file behind
		if item.AttachmentPath != nil {
			if rmErr := s.files.Remove(*item.AttachmentPath); rmErr != nil {
				log.Printf("⚠️  Failed to remove orphaned attachment %s: %v", *item.AttachmentPath, rmErr)
			}
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.Conflict{Message: fmt.Sprintf("document number %q is already registered", in.DocumentNumber)}
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetItem(ctx, item.ID)
}

// UpdateItem fully replaces an item: every field is re-validated, totals
// are recomputed from the replacement line-item list and the price ceiling
// is re-snapshotted from the (possibly different) sub-category. A new
// attachment is durably stored before the old file is removed.
func (s *Service) UpdateItem(ctx context.Context, id uint, in *SubmitItemInput) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFound{Entity: "item", ID: id}
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	subCat, err := s.resolveReferences(ctx, in)
	if err != nil {
		return nil, err
	}

	ceiling := snapshotCeiling(subCat)
	count, total := ComputeTotals(in.LineItems)
	warnAboveCeiling(in.DocumentNumber, ceiling, in.LineItems)

	oldPath := item.AttachmentPath
	var newPath *string
	if in.Attachment != nil {
		path, err := s.files.Save(in.Attachment.File, in.Attachment.Header, itemAttachmentDir, ItemAttachmentRules)
		if err != nil {
			return nil, err
		}
		newPath = &path
		item.AttachmentPath = &path
	}

	item.UserID = in.UserID
	item.CategoryID = in.CategoryID
	item.SubCategoryID = in.SubCategoryID
	item.PriceCeiling = ceiling
	item.DocumentNumber = in.DocumentNumber
	item.Source = in.Source
	item.LineItems = datatypes.NewJSONSlice(in.LineItems)
	item.TotalItems = count
	item.TotalPrice = total

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		if newPath != nil {
			if rmErr := s.files.Remove(*newPath); rmErr != nil {
				log.Printf("⚠️  Failed to remove orphaned attachment %s: %v", *newPath, rmErr)
			}
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.Conflict{Message: fmt.Sprintf("document number %q is already registered", in.DocumentNumber)}
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	// Remove the replaced file only after the new one is stored and the
	// row is written. Cleanup failure must not fail the update.
	if newPath != nil && oldPath != nil && *oldPath != *newPath {
		if err := s.files.Remove(*oldPath); err != nil {
			log.Printf("⚠️  Failed to remove replaced attachment %s: %v", *oldPath, err)
		}
	}

	return s.GetItem(ctx, item.ID)
}

// DeleteItem removes an item and its attachment file, if any
func (s *Service) DeleteItem(ctx context.Context, id uint) error {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFound{Entity: "item", ID: id}
		}
		return fmt.Errorf("failed to load item: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if item.AttachmentPath != nil {
		if err := s.files.Remove(*item.AttachmentPath); err != nil {
			log.Printf("⚠️  Failed to remove attachment %s: %v", *item.AttachmentPath, err)
		}
	}

	return nil
}

// GetItem returns one item with its relationships hydrated
func (s *Service) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("SubCategory").
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFound{Entity: "item", ID: id}
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

// Page is one page of an item listing
type Page struct {
	Data     []models.Item `json:"data"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
	LastPage int           `json:"last_page"`
}

// ListItems returns one page of items, most recently created first
func (s *Service) ListItems(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Item{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	var items []models.Item
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("SubCategory").
		Order("created_at DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &Page{
		Data:     items,
		Total:    total,
		Page:     page,
		PerPage:  PageSize,
		LastPage: LastPage(total, PageSize),
	}, nil
}

// LastPage returns the number of the final page for a total row count
func LastPage(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	return last
}

// resolveReferences confirms the owner, category and sub-category exist and
// that the sub-category belongs to the named category. Returns the
// sub-category so its current price ceiling can be snapshotted.
func (s *Service) resolveReferences(ctx context.Context, in *SubmitItemInput) (*models.SubCategory, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, in.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.ReferenceNotFound{Entity: "user", ID: in.UserID}
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, in.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.ReferenceNotFound{Entity: "category", ID: in.CategoryID}
		}
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}

	var subCat models.SubCategory
	if err := s.db.WithContext(ctx).First(&subCat, in.SubCategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.ReferenceNotFound{Entity: "sub_category", ID: in.SubCategoryID}
		}
		return nil, fmt.Errorf("failed to resolve sub-category: %w", err)
	}

	if subCat.CategoryID != in.CategoryID {
		return nil, apperr.NewValidation("sub_category_id",
			fmt.Sprintf("sub-category %d does not belong to category %d", in.SubCategoryID, in.CategoryID))
	}

	return &subCat, nil
}

func snapshotCeiling(subCat *models.SubCategory) float64 {
	if subCat.PriceCeiling == nil {
		return 0
	}
	return *subCat.PriceCeiling
}

// warnAboveCeiling logs line items priced above the ceiling. The ceiling
// is advisory: submissions are never rejected for exceeding it.
func warnAboveCeiling(documentNumber string, ceiling float64, lines []models.LineItem) {
	if ceiling <= 0 {
		return
	}
	for i, l := range lines {
		if l.UnitPrice > ceiling {
			log.Printf("⚠️  %s: line %d (%s) priced %.2f above ceiling %.2f", documentNumber, i, l.Name, l.UnitPrice, ceiling)
		}
	}
}
