// Package api exposes HTTP handlers for the daywell service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"example.com/daywell/internal/auth"
	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/suggest"
)

// refreshAfterSeconds tells clients how long to wait before re-reading a distribution.
const refreshAfterSeconds = 30

// SuggestionGenerator produces task suggestions. It never fails.
type SuggestionGenerator interface {
	Generate(ctx context.Context, req suggest.Request) suggest.Result
}

// Handler coordinates HTTP requests with the domain service and the suggestion engine.
type Handler struct {
	service     *domain.Service
	suggestions SuggestionGenerator
	logger      *zap.Logger
}

// NewHandler builds a Handler. A nil logger disables handler logging.
func NewHandler(service *domain.Service, suggestions SuggestionGenerator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, suggestions: suggestions, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/distribution", h.distribution)
	mux.HandleFunc("/v1/distribution/history", h.history)
	mux.HandleFunc("/v1/freeze", h.freeze)
	mux.HandleFunc("/v1/suggestions", h.generateSuggestions)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.deleteActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if req.Hour == nil {
		h.writeDomainError(w, &domain.ValidationError{Field: "hour", Reason: "is required"})
		return
	}
	if req.Duration == nil {
		h.writeDomainError(w, &domain.ValidationError{Field: "duration", Reason: "is required"})
		return
	}

	date := req.Date
	if date == "" {
		date = h.service.Today()
	}

	entry, err := h.service.RecordActivity(r.Context(), domain.RecordActivityInput{
		UserID:      claims.Subject,
		Date:        date,
		Hour:        *req.Hour,
		Activity:    req.Activity,
		DurationMin: *req.Duration,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryView(*entry))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	entries, err := h.service.ListActivities(r.Context(), claims.Subject, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if date == "" {
		date = h.service.Today()
	}

	resp := ListActivitiesResponse{Date: date, Items: make([]EntryView, 0, len(entries))}
	for _, entry := range entries {
		resp.Items = append(resp.Items, toEntryView(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	if err := h.service.DeleteActivity(r.Context(), claims.Subject, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) distribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	snapshot, err := h.service.GetDistribution(r.Context(), claims.Subject, r.URL.Query().Get("date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributionResponse{Snapshot: snapshot, RefreshAfterSeconds: refreshAfterSeconds})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	totals, err := h.service.History(r.Context(), claims.Subject, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := HistoryResponse{From: from, To: to, Days: make([]HistoryDay, 0)}
	index := make(map[string]int)
	for _, total := range totals {
		i, seen := index[total.Date]
		if !seen {
			i = len(resp.Days)
			index[total.Date] = i
			resp.Days = append(resp.Days, HistoryDay{Date: total.Date, Totals: make(map[string]int)})
		}
		resp.Days[i].Totals[total.Activity] += total.Minutes
		resp.Days[i].TotalMinutes += total.Minutes
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) freeze(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
		if !ok {
			return
		}
		state, err := h.service.FreezeStatus(r.Context(), claims.Subject)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFreezeView(state))
	case http.MethodPost:
		claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
		if !ok {
			return
		}
		state, err := h.service.EnterFreeze(r.Context(), claims.Subject)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFreezeView(state))
	case http.MethodDelete:
		claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
		if !ok {
			return
		}
		if _, err := h.service.ExitFreeze(r.Context(), claims.Subject); err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFreezeView(nil))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) generateSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeSuggestionsGenerate); !ok {
		return
	}

	var req suggest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.GoalTitle) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid goal_title: is required")
		return
	}

	writeJSON(w, http.StatusOK, h.suggestions.Generate(r.Context(), req))
}

// requireScope resolves the caller and checks that at least one of scopes was granted. It writes
// the error response itself and reports false when the request must stop.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_failed", validation.Error())
	case errors.Is(err, domain.ErrFrozen):
		writeError(w, http.StatusConflict, "frozen", err.Error())
	case errors.Is(err, domain.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// RecordActivityRequest is the payload for POST /v1/activities. An empty date means today; hour
// and duration are required.
type RecordActivityRequest struct {
	Date     string `json:"date"`
	Hour     *int   `json:"hour"`
	Activity string `json:"activity"`
	Duration *int   `json:"duration"`
}

// EntryView exposes one activity log entry.
type EntryView struct {
	ID        string    `json:"id"`
	Activity  string    `json:"activity"`
	Duration  int       `json:"duration"`
	Date      string    `json:"date"`
	Hour      int       `json:"hour"`
	CreatedAt time.Time `json:"created_at"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Date  string      `json:"date"`
	Items []EntryView `json:"items"`
}

// DistributionResponse wraps a snapshot with its polling hint.
type DistributionResponse struct {
	domain.Snapshot
	RefreshAfterSeconds int `json:"refresh_after_seconds"`
}

// HistoryDay is one day of the history response.
type HistoryDay struct {
	Date         string         `json:"date"`
	Totals       map[string]int `json:"totals"`
	TotalMinutes int            `json:"total_minutes"`
}

// HistoryResponse lists per-day totals for a date range. Days without activity are omitted.
type HistoryResponse struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Days []HistoryDay `json:"days"`
}

// FreezeView reports freeze mode.
type FreezeView struct {
	Frozen   bool             `json:"frozen"`
	Since    *time.Time       `json:"since,omitempty"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toEntryView(entry domain.ActivityLogEntry) EntryView {
	return EntryView{
		ID:        entry.ID,
		Activity:  entry.Activity,
		Duration:  entry.DurationMin,
		Date:      entry.Date,
		Hour:      entry.Hour,
		CreatedAt: entry.CreatedAt,
	}
}

func toFreezeView(state *domain.FreezeState) FreezeView {
	if state == nil {
		return FreezeView{}
	}
	since := state.Since
	snapshot := state.Snapshot
	snapshot.Frozen = true
	snapshot.FrozenSince = &since
	return FreezeView{Frozen: true, Since: &since, Snapshot: &snapshot}
}
