package internal

import (
	"context"
	"net/http"

	"gadget-inventory-api/internal/export"
	"gadget-inventory-api/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Dashboard.ComputeStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	s.runExport(w, r, export.KindCSV, s.Exporter.ExportDelimited)
}

func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	s.runExport(w, r, export.KindReport, s.Exporter.ExportReport)
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	s.runExport(w, r, export.KindXLSX, s.Exporter.ExportSpreadsheet)
}

func (s *Server) runExport(w http.ResponseWriter, r *http.Request, kind string, fn func(context.Context) (*models.ExportArtifact, error)) {
	artifact, err := fn(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Metrics.RecordExport(kind)
	writeJSON(w, http.StatusOK, artifact)
}

// download serves a previously written export file as an attachment.
func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	path, ok := s.Exporter.Path(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}
