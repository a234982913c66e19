package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.UserByID(currentUserID(r))
	if err != nil {
		writeStoreError(w, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	user, err := s.store.UserByID(id)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if id != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	var updates struct {
		Username               string `json:"username"`
		Phone                  string `json:"phone"`
		PreferredContactMethod string `json:"preferred_contact_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := s.store.UserByID(id)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch user")
		return
	}
	if updates.Username != "" {
		user.Username = updates.Username
	}
	if updates.Phone != "" {
		user.Phone = updates.Phone
	}
	if updates.PreferredContactMethod != "" {
		user.PreferredContactMethod = updates.PreferredContactMethod
	}
	updated, err := s.store.UpdateUser(id, user)
	if err != nil {
		writeStoreError(w, err, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if id != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		writeStoreError(w, err, "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
