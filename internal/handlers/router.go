package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/config"
	"github.com/armansyah-dev/inventaris/internal/database"
	"github.com/armansyah-dev/inventaris/internal/middleware"
	"github.com/armansyah-dev/inventaris/internal/services/inventory"
	"github.com/armansyah-dev/inventaris/internal/storage"
)

// Router wraps the mux router with the database and collaborators
type Router struct {
	*mux.Router
	db    *database.DB
	cfg   *config.Config
	files *storage.Store
	items *inventory.Service
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, files *storage.Store) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		cfg:    cfg,
		files:  files,
		items:  inventory.NewService(db, files),
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Category routes
	api.HandleFunc("/categories", r.listCategories).Methods("GET")
	api.HandleFunc("/categories", r.createCategory).Methods("POST")
	api.HandleFunc("/categories/{id}", r.getCategory).Methods("GET")
	api.HandleFunc("/categories/{id}", r.updateCategory).Methods("PUT")
	api.HandleFunc("/categories/{id}", r.deleteCategory).Methods("DELETE")

	// Sub-category routes
	api.HandleFunc("/sub-categories", r.listSubCategories).Methods("GET")
	api.HandleFunc("/sub-categories", r.createSubCategory).Methods("POST")
	api.HandleFunc("/sub-categories/{id}", r.getSubCategory).Methods("GET")
	api.HandleFunc("/sub-categories/{id}", r.updateSubCategory).Methods("PUT")
	api.HandleFunc("/sub-categories/{id}", r.deleteSubCategory).Methods("DELETE")

	// Document routes
	api.HandleFunc("/documents", r.listDocuments).Methods("GET")
	api.HandleFunc("/documents", r.createDocument).Methods("POST")
	api.HandleFunc("/documents/{id}", r.getDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", r.updateDocument).Methods("PUT")
	api.HandleFunc("/documents/{id}", r.deleteDocument).Methods("DELETE")

	// Item routes
	api.HandleFunc("/items", r.listItems).Methods("GET")
	api.HandleFunc("/items", r.createItem).Methods("POST")
	api.HandleFunc("/items/{id}", r.getItem).Methods("GET")
	api.HandleFunc("/items/{id}", r.updateItem).Methods("PUT")
	api.HandleFunc("/items/{id}", r.deleteItem).Methods("DELETE")
	api.HandleFunc("/items/{id}/receipt", r.itemReceipt).Methods("GET")

	// User management routes
	api.HandleFunc("/users", r.listUsers).Methods("GET")
	api.HandleFunc("/users", r.createUser).Methods("POST")
	api.HandleFunc("/users/{id}", r.getUser).Methods("GET")
	api.HandleFunc("/users/{id}", r.updateUser).Methods("PUT")
	api.HandleFunc("/users/{id}", r.deleteUser).Methods("DELETE")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"version": "1.0.0",
	})
}

// pathID extracts the numeric {id} route variable
func pathID(req *http.Request) (uint, error) {
	vars := mux.Vars(req)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", vars["id"])
	}
	return uint(id), nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// respondData sends a success response carrying a record or list
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondMessage sends a success response for a mutation, with the record
// and a human-readable message
func respondMessage(w http.ResponseWriter, status int, data interface{}, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
		"message": message,
	})
}

// respondAppError maps a taxonomy error to its HTTP response. Validation
// errors carry the field->message map; anything outside the taxonomy is
// logged and reported as a 500.
func respondAppError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)

	var v *apperr.Validation
	if errors.As(err, &v) {
		respondJSON(w, status, map[string]interface{}{
			"success": false,
			"message": "The given data was invalid",
			"errors":  v.Fields,
		})
		return
	}

	if status == http.StatusInternalServerError {
		log.Printf("❌ %v", err)
		respondError(w, status, "Internal server error")
		return
	}

	respondError(w, status, err.Error())
}
