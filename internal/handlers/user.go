package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/models"
	"github.com/armansyah-dev/inventaris/internal/utils"
)

// UserRequest is the payload for user management create/update. Password
// is required on create and optional on update (blank keeps the current one).
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active"`
}

func (ur *UserRequest) validate(requirePassword bool) error {
	fields := make(map[string]string)
	if ur.Username == "" {
		fields["username"] = "username is required"
	}
	if ur.Email == "" {
		fields["email"] = "email is required"
	}
	if requirePassword && ur.Password == "" {
		fields["password"] = "password is required"
	}
	if ur.Password != "" && len(ur.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return &apperr.Validation{Fields: fields}
	}
	return nil
}

// listUsers returns all users
func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	var users []models.User
	if err := r.db.WithContext(req.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to fetch users: %w", err))
		return
	}
	respondData(w, http.StatusOK, users)
}

// getUser returns a single user by ID
func (r *Router) getUser(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := r.db.WithContext(req.Context()).First(&user, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "user", ID: id})
		return
	}
	respondData(w, http.StatusOK, user)
}

// createUser creates a new user account
func (r *Router) createUser(w http.ResponseWriter, req *http.Request) {
	var body UserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := body.validate(true); err != nil {
		respondAppError(w, err)
		return
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	role := body.Role
	if role == "" {
		role = "user"
	}
	user := models.User{
		Username: body.Username,
		Email:    body.Email,
		Name:     body.Name,
		Role:     role,
		Password: hashed,
		IsActive: true,
	}
	if body.IsActive != nil {
		user.IsActive = *body.IsActive
	}

	if err := r.db.WithContext(req.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondAppError(w, &apperr.Conflict{Message: "email or username is already registered"})
			return
		}
		respondAppError(w, fmt.Errorf("failed to create user: %w", err))
		return
	}

	respondMessage(w, http.StatusCreated, user, "User created")
}

// updateUser updates a user account
func (r *Router) updateUser(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := r.db.WithContext(req.Context()).First(&user, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "user", ID: id})
		return
	}

	var body UserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := body.validate(false); err != nil {
		respondAppError(w, err)
		return
	}

	user.Username = body.Username
	user.Email = body.Email
	user.Name = body.Name
	if body.Role != "" {
		user.Role = body.Role
	}
	if body.IsActive != nil {
		user.IsActive = *body.IsActive
	}
	if body.Password != "" {
		hashed, err := utils.HashPassword(body.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		user.Password = hashed
	}

	if err := r.db.WithContext(req.Context()).Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondAppError(w, &apperr.Conflict{Message: "email or username is already registered"})
			return
		}
		respondAppError(w, fmt.Errorf("failed to update user: %w", err))
		return
	}

	respondMessage(w, http.StatusOK, user, "User updated")
}

// deleteUser removes a user account unless documents or items still
// reference it
func (r *Router) deleteUser(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := r.db.WithContext(req.Context()).First(&user, id).Error; err != nil {
		respondAppError(w, &apperr.NotFound{Entity: "user", ID: id})
		return
	}

	var docCount int64
	if err := r.db.WithContext(req.Context()).Model(&models.Document{}).Where("user_id = ?", id).Count(&docCount).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to count documents: %w", err))
		return
	}
	if err := dependentGuard(docCount, "user", "documents"); err != nil {
		respondAppError(w, err)
		return
	}

	var itemCount int64
	if err := r.db.WithContext(req.Context()).Model(&models.Item{}).Where("user_id = ?", id).Count(&itemCount).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to count items: %w", err))
		return
	}
	if err := dependentGuard(itemCount, "user", "items"); err != nil {
		respondAppError(w, err)
		return
	}

	if err := r.db.WithContext(req.Context()).Delete(&user).Error; err != nil {
		respondAppError(w, fmt.Errorf("failed to delete user: %w", err))
		return
	}

	respondMessage(w, http.StatusOK, nil, "User deleted")
}
