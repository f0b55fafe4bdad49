package http

import (
	"net/http"
	"strconv"

	"findash/internal/core"
	"findash/internal/export"
	applog "findash/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f, srt, err := core.ParseFilter(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := core.ParsePage(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.transactions.List(ctx, f, srt, p)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Failed to list transactions", err, applog.OpList, nil)
		writeError(w, r, http.StatusInternalServerError, msgFetchFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.transactions.Summary(ctx)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Failed to compute summary", err, applog.OpSummary, nil)
		writeMessage(w, r, http.StatusInternalServerError, msgSummaryFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handleExport renders the whole document before writing any of it, so a
// failure can still be reported with a 500.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f, srt, err := core.ParseFilter(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	columns := export.ParseColumns(q)

	body, err := s.transactions.Export(ctx, f, srt, columns, format)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Failed to export transactions", err, applog.OpExport,
			applog.LogFields{"format": string(format)})
		writeError(w, r, http.StatusInternalServerError, msgExportFailed)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
