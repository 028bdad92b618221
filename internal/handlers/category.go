package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/models"
)

// CategoryRequest is the payload for creating or updating a category
type CategoryRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (cr *CategoryRequest) validate() error {
	fields := make(map[string]string)
	if cr.Code == "" {
		fields["code"] = "code is required"
	}
	if cr.Name == "" {
		fields["name"] = "name is required"
	}
	if len(fields) > 0 {
		return &apperr.Validation{Fields: fields}
	}
	return nil
}

// dependentGuard rejects a delete when live dependents still reference
// the record. Deletes never cascade.
func dependentGuard(count int64, entity, dependents string) error {
	if count > 0 {
		return &apperr.Conflict{
			Message: fmt.Sprintf("cannot delete %s: %d %s still reference it", entity, count, dependents),
		}
	}
	return nil
}

// listCategories returns all categories
func (r *Router) listCategories(w http.ResponseWriter, req *http.Request) {
	var categories []models.Category
	if err := r.db.WithContext(req.Context()).Order("created_at DESC").Find(&categories).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to fetch categories: %w", err))
		return
	}
	respondData(w, http.StatusOK, categories)
}

// getCategory returns a single category by ID
func (r *Router) getCategory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var category models.Category
	if err := r.db.WithContext(req.Context()).First(&category, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "category", ID: id})
		return
	}
	respondData(w, http.StatusOK, category)
}

// createCategory creates a new category
func (r *Router) createCategory(w http.ResponseWriter, req *http.Request) {
	var body CategoryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := body.validate(); err != nil {
		respondAppError(w, err)
		return
	}

	category := models.Category{Code: body.Code, Name: body.Name}
	if err := r.db.WithContext(req.Context()).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondAppError(w, &apperr.Conflict{Message: fmt.Sprintf("category code %q is already in use", body.Code)})
			return
		}
		respondAppError(w, fmt.Errorf("failed to create category: %w", err))
		return
	}

	respondMessage(w, http.StatusCreated, category, "Category created")
}

// updateCategory updates an existing category
func (r *Router) updateCategory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var category models.Category
	if err := r.db.WithContext(req.Context()).First(&category, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "category", ID: id})
		return
	}

	var body CategoryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := body.validate(); err != nil {
		respondAppError(w, err)
		return
	}

	category.Code = body.Code
	category.Name = body.Name
	if err := r.db.WithContext(req.Context()).Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondAppError(w, &apperr.Conflict{Message: fmt.Sprintf("category code %q is already in use", body.Code)})
			return
		}
		respondAppError(w, fmt.Errorf("failed to update category: %w", err))
		return
	}

	respondMessage(w, http.StatusOK, category, "Category updated")
}

// deleteCategory deletes a category unless sub-categories or items still
// reference it
func (r *Router) deleteCategory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var category models.Category
	if err := r.db.WithContext(req.Context()).First(&category, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "category", ID: id})
		return
	}

	var subCount int64
	if err := r.db.WithContext(req.Context()).Model(&models.SubCategory{}).Where("category_id = ?", id).Count(&subCount).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to count sub-categories: %w", err))
		return
	}
	if err := dependentGuard(subCount, "category", "sub-categories"); err != nil {
		respondAppError(w, err)
		return
	}

	var itemCount int64
	if err := r.db.WithContext(req.Context()).Model(&models.Item{}).Where("category_id = ?", id).Count(&itemCount).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to count items: %w", err))
		return
	}
	if err := dependentGuard(itemCount, "category", "items"); err != nil {
		respondAppError(w, err)
		return
	}

	if err := r.db.WithContext(req.Context()).Delete(&category).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to delete category: %w", err))
		return
	}

	respondMessage(w, http.StatusOK, nil, "Category deleted")
}
