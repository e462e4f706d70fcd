package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/pipeline"
	"github.com/dmitrymomot/menumail/internal/tasks"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/menuapi"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	maxBodyBytes     = 1 << 16
)

type errorResponse struct {
	Error string `json:"error"`
}

// runResponse is returned by POST /runs.
type runResponse struct {
	JobID     int64  `json:"job_id,omitempty"`
	Date      string `json:"date,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// handlePreview renders the menu email for {date} (YYYY-MM-DD) or today.
// ?format=text returns the plain-text alternative.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if raw := chi.URLParam(r, "date"); raw != "" && raw != "today" {
		date, err := menu.ParseDate(raw, s.deps.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		req.Date = date
	}

	prepared, err := s.deps.Previewer.Preview(r.Context(), req)
	if err != nil {
		status := previewStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "menu preview failed", "error", err)
		}
		writeError(w, status, http.StatusText(status))
		return
	}

	w.Header().Set("X-Menu-Date", prepared.DateKey)
	w.Header().Set("X-Menu-Subject", prepared.Email.Subject)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, prepared.Email.Text)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, prepared.Email.HTML)
}

func previewStatus(err error) int {
	switch {
	case errors.Is(err, menu.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, menuapi.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, menuapi.ErrClientError), errors.Is(err, menuapi.ErrNoMenus),
		errors.Is(err, menu.ErrMalformedPayload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleEnqueueRun enqueues an ad-hoc delivery. A request for a date already
// queued within the uniqueness window answers 200 with duplicate=true.
func (s *Server) handleEnqueueRun(w http.ResponseWriter, r *http.Request) {
	var p tasks.SendMenuPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := tasks.EnqueueSendMenu(r.Context(), s.deps.Enqueuer, p)
	if errors.Is(err, menu.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to enqueue menu run", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue run")
		return
	}

	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, runResponse{JobID: res.ID, Date: p.Date, Duplicate: res.Duplicate})
}

// handleListRuns returns the most recent deliveries, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := s.deps.Deliveries.List(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list deliveries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	type item struct {
		*delivery.Delivery
		MenuDate string `json:"menu_date"`
	}
	out := make([]item, 0, len(list))
	for _, d := range list {
		out = append(out, item{Delivery: d, MenuDate: d.Date()})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
