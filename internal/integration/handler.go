package integration

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/credential"
	"github.com/hivel/calendar-service/internal/oauth"
	"github.com/hivel/calendar-service/internal/provider"
)

type StateDecoder interface {
	DecodeState(state string) (string, error)
}

type CredentialStore interface {
	GetCredential(ctx context.Context, orgID string) (*credential.Credential, error)
	SaveCredential(ctx context.Context, orgID string, tok *oauth.Token, email string) (*credential.Credential, error)
}

type Handler struct {
	client      oauth.Client
	credentials CredentialStore
	state       StateDecoder
	frontendURL string
}

func NewHandler(client oauth.Client, credentials CredentialStore, state StateDecoder, frontendURL string) *Handler {
	return &Handler{
		client:      client,
		credentials: credentials,
		state:       state,
		frontendURL: frontendURL,
	}
}

type StartResponse struct {
	OrgID            string `json:"org_id"`
	AuthorizationURL string `json:"authorization_url"`
}

type StatusResponse struct {
	OrgID      string     `json:"org_id"`
	Integrated bool       `json:"integrated"`
	Email      string     `json:"email,omitempty"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		config.JSONError(w, http.StatusBadRequest, "bad_request", "org_id is required")
		return
	}

	authURL, err := h.client.AuthorizationURL(orgID)
	if err != nil {
		log.WithError(err).Error("Failed to build authorization URL")
		config.JSONError(w, http.StatusInternalServerError, "internal_error", "could not build authorization url")
		return
	}

	config.JSON(w, http.StatusOK, StartResponse{OrgID: orgID, AuthorizationURL: authURL})
}

// Callback completes the consent round trip. Every outcome is a redirect to
// the frontend.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := config.WithContext(ctx)
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		log.WithField("provider_error", providerErr).Warn("Authorization was not granted")
		h.redirectError(w, r, "authorization denied: "+providerErr)
		return
	}

	orgID, err := h.state.DecodeState(q.Get("state"))
	if err != nil {
		log.WithError(err).Warn("Rejected authorization callback state")
		h.redirectError(w, r, "invalid or expired state")
		return
	}
	ctx = config.WithOrgID(ctx, orgID)
	log = config.WithContext(ctx)

	code := q.Get("code")
	if code == "" {
		h.redirectError(w, r, "missing authorization code")
		return
	}

	tok, err := h.client.ExchangeCode(ctx, code)
	if err != nil {
		msg := "failed to exchange authorization code"
		if errors.Is(err, provider.ErrInvalidGrant) {
			msg = "authorization code expired or already used"
		}
		h.redirectError(w, r, msg)
		return
	}

	email, err := h.client.AccountEmail(ctx, tok.AccessToken)
	if err != nil {
		log.WithError(err).Warn("Could not look up connected account email")
	}

	if _, err := h.credentials.SaveCredential(ctx, orgID, tok, email); err != nil {
		h.redirectError(w, r, "failed to store credentials")
		return
	}

	log.Info("Calendar integration connected")
	h.redirect(w, r, url.Values{"org_id": {orgID}, "status": {"success"}})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		config.JSONError(w, http.StatusBadRequest, "bad_request", "org_id is required")
		return
	}

	cred, err := h.credentials.GetCredential(r.Context(), orgID)
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Failed to read credential")
		config.JSONError(w, http.StatusInternalServerError, "persistence_failure", "credential store failure")
		return
	}

	resp := StatusResponse{OrgID: orgID}
	if cred != nil {
		issued := cred.IssuedAt
		expires := cred.ExpiresAt()
		resp.Integrated = true
		resp.Email = cred.Email
		resp.IssuedAt = &issued
		resp.ExpiresAt = &expires
	}
	config.JSON(w, http.StatusOK, resp)
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	h.redirect(w, r, url.Values{"status": {"error"}, "message": {message}})
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, params url.Values) {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Invalid frontend URL")
		config.JSONError(w, http.StatusInternalServerError, "internal_error", "misconfigured redirect")
		return
	}
	q := target.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}
