package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvmap/internal/core"
)

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status         string `json:"status"`
	Records        int    `json:"records"`
	ImportsEnabled bool   `json:"imports_enabled"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Records:        core.RecordCount(),
		ImportsEnabled: s.service.ImportsEnabled(),
	})
}

// handleListRecords returns every registered record type.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListRecords())
}

// handleDescribe returns the field schema of one record type.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	schema, err := s.service.Describe(chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

// handleParse reads the uploaded CSV and returns the records. The number of
// records is capped by UPLOAD_PREVIEW_LIMIT.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.cleanup()

	if preview := s.cfg.Upload.PreviewLimit; preview > 0 && (up.opts.Limit == 0 || up.opts.Limit > preview) {
		up.opts.Limit = preview
	}

	result, err := s.service.Parse(r.Context(), chi.URLParam(r, "key"), up.body, up.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleValidate dry-runs the uploaded CSV and reports bad rows.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.cleanup()

	report, err := s.service.Validate(r.Context(), chi.URLParam(r, "key"), up.body, up.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleImport copies the uploaded CSV into the record type's table.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.cleanup()

	result, err := s.service.Import(r.Context(), chi.URLParam(r, "key"), up.body, up.opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
