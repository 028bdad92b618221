package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/models"
)

// SubCategoryRequest is the payload for creating or updating a sub-category
type SubCategoryRequest struct {
	CategoryID   uint     `json:"category_id"`
	Name         string   `json:"name"`
	PriceCeiling *float64 `json:"price_ceiling"`
}

func (sr *SubCategoryRequest) validate() error {
	fields := make(map[string]string)
	if sr.CategoryID == 0 {
		fields["category_id"] = "category_id is required"
	}
	if sr.Name == "" {
		fields["name"] = "name is required"
	} else if len(sr.Name) > 100 {
		fields["name"] = "name must not exceed 100 characters"
	}
	if sr.PriceCeiling != nil && *sr.PriceCeiling < 0 {
		fields["price_ceiling"] = "price_ceiling must not be negative"
	}
	if len(fields) > 0 {
		return &apperr.Validation{Fields: fields}
	}
	return nil
}

// resolveCategory confirms the parent category exists
func (r *Router) resolveCategory(req *http.Request, id uint) error {
	var category models.Category
	if err := r.db.WithContext(req.Context()).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.ReferenceNotFound{Entity: "category", ID: id}
		}
		return fmt.Errorf("failed to resolve category: %w", err)
	}
	return nil
}

// listSubCategories returns all sub-categories with their category hydrated
func (r *Router) listSubCategories(w http.ResponseWriter, req *http.Request) {
	var subCategories []models.SubCategory
	if err := r.db.WithContext(req.Context()).Preload("Category").Order("created_at DESC").Find(&subCategories).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to fetch sub-categories: %w", err))
		return
	}
	respondData(w, http.StatusOK, subCategories)
}

// getSubCategory returns a single sub-category by ID
func (r *Router) getSubCategory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sub-category ID")
		return
	}

	var subCategory models.SubCategory
	if err := r.db.WithContext(req.Context()).Preload("Category").First(&subCategory, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "sub_category", ID: id})
		return
	}
	respondData(w, http.StatusOK, subCategory)
}

// createSubCategory creates a new sub-category
func (r *Router) createSubCategory(w http.ResponseWriter, req *http.Request) {
	var body SubCategoryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := body.validate(); err != nil {
		respondAppError(w, err)
		return
	}
	if err := r.resolveCategory(req, body.CategoryID); err != nil {
		respondAppError(w, err)
		return
	}

	subCategory := models.SubCategory{
		CategoryID:   body.CategoryID,
		Name:         body.Name,
		PriceCeiling: body.PriceCeiling,
	}
	if err := r.db.WithContext(req.Context()).Create(&subCategory).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to create sub-category: %w", err))
		return
	}

	if err := r.db.WithContext(req.Context()).Preload("Category").First(&subCategory, subCategory.ID).Error; err != nil {
		log.Printf("⚠️  Failed to reload sub-category %d: %v", subCategory.ID, err)
	}
	respondMessage(w, http.StatusCreated, subCategory, "Sub-category created")
}

// updateSubCategory updates an existing sub-category
func (r *Router) updateSubCategory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sub-category ID")
		return
	}

	var subCategory models.SubCategory
	if err := r.db.WithContext(req.Context()).First(&subCategory, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "sub_category", ID: id})
		return
	}

	var body SubCategoryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := body.validate(); err != nil {
		respondAppError(w, err)
		return
	}
	if err := r.resolveCategory(req, body.CategoryID); err != nil {
		respondAppError(w, err)
		return
	}

	subCategory.CategoryID = body.CategoryID
	subCategory.Name = body.Name
	subCategory.PriceCeiling = body.PriceCeiling
	if err := r.db.WithContext(req.Context()).Save(&subCategory).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to update sub-category: %w", err))
		return
	}

	if err := r.db.WithContext(req.Context()).Preload("Category").First(&subCategory, subCategory.ID).Error; err != nil {
		log.Printf("⚠️  Failed to reload sub-category %d: %v", subCategory.ID, err)
	}
	respondMessage(w, http.StatusOK, subCategory, "Sub-category updated")
}

// deleteSubCategory deletes a sub-category unless items still reference it.
// Existing items keep their snapshotted price ceiling either way.
func (r *Router) deleteSubCategory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sub-category ID")
		return
	}

	var subCategory models.SubCategory
	if err := r.db.WithContext(req.Context()).First(&subCategory, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "sub_category", ID: id})
		return
	}

	var itemCount int64
	if err := r.db.WithContext(req.Context()).Model(&models.Item{}).Where("sub_category_id = ?", id).Count(&itemCount).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to count items: %w", err))
		return
	}
	if err := dependentGuard(itemCount, "sub-category", "items"); err != nil {
		respondAppError(w, err)
		return
	}

	if err := r.db.WithContext(req.Context()).Delete(&subCategory).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to delete sub-category: %w", err))
		return
	}

	respondMessage(w, http.StatusOK, nil, "Sub-category deleted")
}
