package server

import "net/http"

func (s *Server) getTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.Templates()
	if err != nil {
		writeStoreError(w, err, "Failed to fetch templates")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid template id")
		return
	}
	template, err := s.store.Template(id)
	if err != nil {
		writeStoreError(w, err, "Failed to fetch template")
		return
	}
	writeJSON(w, http.StatusOK, template)
}
