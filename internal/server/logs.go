package server

import (
	"encoding/json"
	"net/http"
	"time"

	"habitgrid/db"
)

type createLogRequest struct {
	Date          string `json:"date"`
	TimeCompleted string `json:"time_completed"`
	Notes         string `json:"notes"`
}

func (s *Server) getHabitLogs(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	logs, err := s.store.LogsForHabit(habit.ID)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch habit logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// getHabitLogsToday returns the habit's logs for today, or for an explicit
// ?date=YYYY-MM-DD override.
func (s *Server) getHabitLogsToday(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	date := db.NewDate(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		var err error
		date, err = db.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
	}
	logs, err := s.store.LogsForHabitOnDate(habit.ID, date)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch habit logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) createHabitLog(w http.ResponseWriter, r *http.Request) {
	habit, ok := s.ownedHabit(w, r, "id")
	if !ok {
		return
	}
	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := time.Now()
	date := db.NewDate(now)
	if req.Date != "" {
		var err error
		date, err = db.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
	}
	completed := now
	if req.TimeCompleted != "" {
		parsed, err := time.Parse(time.RFC3339, req.TimeCompleted)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid time_completed")
			return
		}
		completed = parsed
	}

	entry := &db.HabitLog{
		HabitID:       habit.ID,
		Date:          date,
		TimeCompleted: completed,
		Notes:         req.Notes,
	}
	if err := s.store.CreateLog(entry); err != nil {
		writeStoreError(w, err, "Failed to create habit log")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ownedLog resolves a log through its habit so a log belonging to another
// user's habit reads as not found.
func (s *Server) ownedLog(w http.ResponseWriter, r *http.Request) (*db.HabitLog, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid log id")
		return nil, false
	}
	entry, err := s.store.Log(id)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch habit log")
		return nil, false
	}
	habit, err := s.store.Habit(entry.HabitID)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch habit log")
		return nil, false
	}
	if habit.UserID != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return nil, false
	}
	return entry, true
}

func (s *Server) updateHabitLog(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.ownedLog(w, r)
	if !ok {
		return
	}
	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updates := &db.HabitLog{Notes: req.Notes}
	if req.Date != "" {
		date, err := db.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		updates.Date = date
	}
	if req.TimeCompleted != "" {
		parsed, err := time.Parse(time.RFC3339, req.TimeCompleted)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid time_completed")
			return
		}
		updates.TimeCompleted = parsed
	}
	updated, err := s.store.UpdateLog(entry.ID, updates)
	if err != nil {
		writeStoreError(w, err, "Failed to update habit log")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteHabitLog(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.ownedLog(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteLog(entry.ID); err != nil {
		writeStoreError(w, err, "Failed to delete habit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit log deleted"})
}

// getUserLogsRange returns every log of the user's active habits between
// start_date and end_date inclusive, the feed the client builds its
// calendar window from.
func (s *Server) getUserLogsRange(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if id != currentUserID(r) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	startRaw := r.URL.Query().Get("start_date")
	endRaw := r.URL.Query().Get("end_date")
	if startRaw == "" || endRaw == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}
	start, err := db.ParseDate(startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date")
		return
	}
	end, err := db.ParseDate(endRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date")
		return
	}
	if end.Before(start.Time) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}
	logs, err := s.store.LogsForDateRange(id, start, end)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
