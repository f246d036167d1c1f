package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/schedulectx/internal/apperr"
	"github.com/starford/schedulectx/internal/checksum"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/scheduleservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *scheduleservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *scheduleservice.Service) *Handler {
	return &Handler{svc: svc}
}

// GetSchedule handles GET /api/schedule.
//
//	@Summary		Get the raw schedule document
//	@Tags			schedule
//	@Produce		json
//	@Success		200	{object}	ScheduleDocument
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/schedule [get]
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetSchedule(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get schedule failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// UpdateSchedule handles PUT /api/schedule.
//
//	@Summary		Replace the schedule (optimistic locking via If-Match)
//	@Tags			schedule
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string					false	"Checksum of the schedule being replaced"
//	@Param			body		body		UpdateScheduleRequest	true	"New schedule"
//	@Success		200			{object}	ScheduleDocument
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/schedule [put]
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*scheduleservice.MaxScheduleBytes)
	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))
	doc, err := h.svc.UpdateSchedule(r.Context(), []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalid):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("conflict: schedule was modified"))
		default:
			slog.Error("update schedule failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// GetContext handles GET /api/schedule/context.
// The game_date parameter is presence-sensitive: "?game_date=" supplies an
// empty date, omitting it supplies none.
//
//	@Summary		Get the prompt context block for the schedule
//	@Tags			schedule
//	@Produce		plain
//	@Param			game_date	query		string	false	"Game date, embedded verbatim"
//	@Success		200			{string}	string
//	@Security		BearerAuth
//	@Router			/schedule/context [get]
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts []schedule.ContextOption
	if q.Has("game_date") {
		opts = append(opts, schedule.WithGameDate(q.Get("game_date")))
	}

	text, err := h.svc.Context(r.Context(), opts...)
	if err != nil {
		slog.Error("schedule context failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// ListRevisions handles GET /api/schedule/revisions.
//
//	@Summary		List recorded schedule revisions, newest first
//	@Tags			schedule
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	RevisionListResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/schedule/revisions [get]
func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	revs, total, err := h.svc.Revisions(r.Context(), limit, offset)
	if err != nil {
		if errors.Is(err, apperr.ErrUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("revision history disabled"))
			return
		}
		slog.Error("list revisions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RevisionListResponse{Revisions: revs, Total: total})
}
