package server

import (
	"encoding/json"
	"net/http"

	"habitgrid/db"
)

// getMyCategories returns the categories visible to the caller: every global
// category plus the caller's own.
func (s *Server) getMyCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.CategoriesForUser(currentUserID(r))
	if err != nil {
		writeStoreError(w, err, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		UserID *uint  `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	// A user can only create categories owned by themselves; global
	// categories are seeded, never created through the API.
	owner := currentUserID(r)
	category := &db.Category{Name: req.Name, UserID: &owner}
	if err := s.store.CreateCategory(category); err != nil {
		writeStoreError(w, err, "Failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, category)
}
