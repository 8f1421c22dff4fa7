package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/PharmaDash/internal/analytics"
	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
	"github.com/JonMunkholm/PharmaDash/internal/logging"
	"github.com/JonMunkholm/PharmaDash/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

const pageTitle = "Pharmaceutical Material Pricing Dashboard"

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	c := filter.FromQuery(r.URL.Query())
	material := strings.TrimSpace(r.URL.Query().Get("material"))

	rows, err := s.service.Rows(s.rowsRequest(r, c))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	page := templates.DashboardPage{
		Dashboard:   s.service.Dashboard(c, material),
		Options:     s.service.Options(),
		Constraints: c,
		Material:    material,
		Rows:        rows,
		Source:      s.service.Table().Source,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout(pageTitle, templates.Dashboard(page)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// handleOptions returns the legal filter selections.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if s.notModified(w, r) {
		return
	}
	writeJSON(w, r, s.service.Options())
}

// summaryResponse is the headline numbers for a constraint set.
type summaryResponse struct {
	analytics.Metrics
	Warnings []string `json:"warnings,omitempty"`
}

// handleSummary returns the key metrics for the current filters.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.notModified(w, r) {
		return
	}
	sel := s.service.Filter(filter.FromQuery(r.URL.Query()))
	writeJSON(w, r, summaryResponse{Metrics: analytics.KeyMetrics(sel.Rows), Warnings: sel.Warnings()})
}

// handleListViews lists the view names accepted by /api/views/{view}.
func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string][]string{"views": core.ViewNames()})
}

// handleView returns a single chart's data.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	q := r.URL.Query()

	res, err := s.service.View(name, filter.FromQuery(q), q.Get("material"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if s.notModified(w, r) {
		return
	}
	writeJSON(w, r, res)
}

// handleRows returns the detailed table view.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Rows(s.rowsRequest(r, filter.FromQuery(r.URL.Query())))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if s.notModified(w, r) {
		return
	}
	writeJSON(w, r, res)
}

// handleExport streams the filtered table as a download.
func (s *Server) handleExport(format string) http.HandlerFunc {
	contentType := "text/csv; charset=utf-8"
	if format == core.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		c := filter.FromQuery(r.URL.Query())
		logger := logging.WithFields(r.Context(), "format", format, "filters", c.Query().Encode())

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.ExportFilename(format)))

		n, err := s.service.Export(r.Context(), w, c, format)
		switch {
		case errors.Is(err, core.ErrTooManyExports):
			// Nothing written yet
			w.Header().Del("Content-Disposition")
			w.Header().Set("Retry-After", "5")
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		case err != nil:
			// Headers and part of the body may already be sent; log only.
			logger.Error("export failed", "error", err)
			return
		}
		logger.Info("export complete", "records", n)
	}
}

// handleHealthz reports liveness and the loaded table.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	t := s.service.Table()
	writeJSON(w, r, map[string]any{
		"status":    "ok",
		"records":   t.Len(),
		"table_id":  t.ID.String(),
		"loaded_at": t.LoadedAt,
		"bytes":     t.Bytes,
		"exports":   s.service.ExportStatus(),
	})
}

// rowsRequest reads column selection and row limit from the query.
// Columns may repeat (?column=A&column=B) or be comma-separated.
func (s *Server) rowsRequest(r *http.Request, c filter.Constraints) core.RowsRequest {
	q := r.URL.Query()

	var columns []string
	for _, v := range q["column"] {
		for _, col := range strings.Split(v, ",") {
			if col = strings.TrimSpace(col); col != "" {
				columns = append(columns, col)
			}
		}
	}

	return core.RowsRequest{
		Constraints: c,
		Columns:     columns,
		Limit:       parseIntParam(r, "limit", s.cfg.Table.DefaultRows),
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// notModified sets a weak ETag derived from the loaded table and reports
// whether the client's copy is current. The table never changes after
// startup, so a URL's response is fixed for the life of the ID.
func (s *Server) notModified(w http.ResponseWriter, r *http.Request) bool {
	etag := `W/"` + s.service.Table().ID.String() + `"`
	w.Header().Set("ETag", etag)
	for _, tag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(tag) == etag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}
