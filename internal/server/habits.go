package server

import (
	"encoding/json"
	"net/http"
	"time"

	"habitgrid/db"
)

type createHabitRequest struct {
	TemplateID  *uint  `json:"template_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  *uint  `json:"category_id"`
	TimesPerDay int    `json:"times_per_day"`
	CreateDate  string `json:"create_date"`
}

func (s *Server) getUserHabits(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if id != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	habits, err := s.store.HabitsForUser(id)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch user habits")
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if userID != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	var req createHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "Description is required")
		return
	}

	// Habits created from a template inherit its category when none was
	// chosen explicitly.
	categoryID := req.CategoryID
	if req.TemplateID != nil && categoryID == nil {
		template, err := s.store.Template(*req.TemplateID)
		if err != nil {
			writeStoreError(w, err, "Failed to fetch template")
			return
		}
		categoryID = template.CategoryID
	}
	if req.TemplateID == nil && categoryID == nil {
		writeError(w, http.StatusBadRequest, "Category is required for custom habits")
		return
	}

	timesPerDay := req.TimesPerDay
	if timesPerDay < 1 {
		timesPerDay = 1
	}

	createDate := db.NewDate(time.Now())
	if req.CreateDate != "" {
		createDate, err = db.ParseDate(req.CreateDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid create_date")
			return
		}
	}

	habit := &db.UserHabit{
		UserID:      userID,
		TemplateID:  req.TemplateID,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  categoryID,
		TimesPerDay: timesPerDay,
		IsActive:    true,
		CreateDate:  createDate,
	}
	if err := s.store.CreateHabit(habit); err != nil {
		writeStoreError(w, err, "Failed to create user habit")
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

// ownedHabit loads a habit and verifies it belongs to the caller. A habit
// owned by someone else reads as not found.
func (s *Server) ownedHabit(w http.ResponseWriter, r *http.Request, param string) (*db.UserHabit, bool) {
	id, err := urlID(r, param)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid habit id")
		return nil, false
	}
	habit, err := s.store.Habit(id)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch habit")
		return nil, false
	}
	if habit.UserID != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return nil, false
	}
	return habit, true
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	var updates db.UserHabit
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if updates.TimesPerDay < 0 {
		writeError(w, http.StatusBadRequest, "times_per_day must be at least 1")
		return
	}
	// Ownership is fixed at creation.
	updates.ID = 0
	updates.UserID = 0

	updated, err := s.store.UpdateHabit(habit.ID, &updates)
	if err != nil {
		writeStoreError(w, err, "Failed to update habit")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) archiveHabit(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	archived, err := s.store.ArchiveHabit(habit.ID)
	if err != nil {
		writeStoreError(w, err, "Failed to archive habit")
		return
	}
	writeJSON(w, http.StatusOK, archived)
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteHabit(habit.ID); err != nil {
		writeStoreError(w, err, "Failed to delete habit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted"})
}
