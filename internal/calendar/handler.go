package calendar

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/credential"
	"github.com/hivel/calendar-service/internal/provider"
	util "github.com/hivel/calendar-service/internal/utils"
)

type Syncing interface {
	Sync(ctx context.Context, orgID string, window Window, persist bool) (*SyncResult, error)
	Calendars(ctx context.Context, orgID string) ([]string, error)
	Status(ctx context.Context, orgID string) (*SyncState, error)
	StoredEvents(ctx context.Context, orgID string) ([]StoredEvent, error)
}

type Handler struct {
	syncer Syncing
	now    func() time.Time
}

func NewHandler(syncer Syncing) *Handler {
	return &Handler{syncer: syncer, now: time.Now}
}

type CalendarsResponse struct {
	Status    string   `json:"status"`
	OrgID     string   `json:"org_id"`
	Calendars []string `json:"accessible_calendars"`
	Count     int      `json:"count"`
}

type StoredEventsResponse struct {
	OrgID  string        `json:"org_id"`
	Events []StoredEvent `json:"events"`
	Count  int           `json:"events_count"`
}

type StatusResponse struct {
	OrgID  string     `json:"org_id"`
	Status string     `json:"status"`
	State  *SyncState `json:"state,omitempty"`
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		config.JSONError(w, http.StatusBadRequest, "bad_request", "org_id is required")
		return
	}

	window, err := h.parseWindow(r)
	if err != nil {
		log.WithError(err).Warn("Invalid sync window")
		config.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	persist := false
	if raw := r.URL.Query().Get("persist"); raw != "" {
		if persist, err = strconv.ParseBool(raw); err != nil {
			config.JSONError(w, http.StatusBadRequest, "bad_request", "persist must be a boolean")
			return
		}
	}

	result, err := h.syncer.Sync(r.Context(), orgID, window, persist)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, result)
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		config.JSONError(w, http.StatusBadRequest, "bad_request", "org_id is required")
		return
	}

	ids, err := h.syncer.Calendars(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	config.JSON(w, http.StatusOK, CalendarsResponse{
		Status:    "success",
		OrgID:     orgID,
		Calendars: ids,
		Count:     len(ids),
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		config.JSONError(w, http.StatusBadRequest, "bad_request", "org_id is required")
		return
	}

	state, err := h.syncer.Status(r.Context(), orgID)
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Failed to read sync state")
		config.JSONError(w, http.StatusInternalServerError, "persistence_failure", "could not read sync state")
		return
	}

	resp := StatusResponse{OrgID: orgID, Status: "never_synced"}
	if state != nil {
		resp.Status = string(state.Status)
		resp.State = state
	}
	config.JSON(w, http.StatusOK, resp)
}

func (h *Handler) StoredEvents(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		config.JSONError(w, http.StatusBadRequest, "bad_request", "org_id is required")
		return
	}

	events, err := h.syncer.StoredEvents(r.Context(), orgID)
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Failed to read stored events")
		config.JSONError(w, http.StatusInternalServerError, "persistence_failure", "could not read stored events")
		return
	}

	config.JSON(w, http.StatusOK, StoredEventsResponse{
		OrgID:  orgID,
		Events: events,
		Count:  len(events),
	})
}

func (h *Handler) parseWindow(r *http.Request) (Window, error) {
	window := DefaultWindow(h.now())

	start, err := util.ParseTimeParam(r.URL.Query().Get("start_date"), false)
	if err != nil {
		return Window{}, err
	}
	end, err := util.ParseTimeParam(r.URL.Query().Get("end_date"), true)
	if err != nil {
		return Window{}, err
	}

	if !start.IsZero() {
		window.Start = start
	}
	if !end.IsZero() {
		window.End = end
	}
	return window, window.Validate()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := config.WithContext(r.Context())

	switch {
	case errors.Is(err, credential.ErrNotIntegrated):
		config.JSONError(w, http.StatusNotFound, "not_integrated", "organization has not connected a calendar")
	case errors.Is(err, provider.ErrInvalidGrant), errors.Is(err, provider.ErrUnauthorized):
		config.JSONError(w, http.StatusUnauthorized, "reauthorization_required", "calendar access was revoked, reconnect the integration")
	case errors.Is(err, provider.ErrProviderUnavailable):
		log.WithError(err).Warn("Calendar provider unavailable")
		config.JSONError(w, http.StatusServiceUnavailable, "provider_unavailable", "calendar provider is unavailable, try again later")
	case errors.Is(err, credential.ErrPersistenceFailure), errors.Is(err, credential.ErrDecryptionFailed):
		log.WithError(err).Error("Credential store failure")
		config.JSONError(w, http.StatusInternalServerError, "persistence_failure", "credential store failure")
	case errors.Is(err, ErrInvalidWindow):
		config.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		log.WithError(err).Error("Calendar request failed")
		config.JSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
