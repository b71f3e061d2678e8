package credential

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/oauth"
)

// RefreshBuffer is how close to expiry a cached access token may get before
// it is refreshed.
const RefreshBuffer = 5 * time.Minute

var ErrNotIntegrated = errors.New("organization has no calendar integration")

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth.Token, error)
}

type TokenManager interface {
	GetCredential(ctx context.Context, orgID string) (*Credential, error)
	SaveCredential(ctx context.Context, orgID string, tok *oauth.Token, email string) (*Credential, error)
	GetValidAccessToken(ctx context.Context, orgID string) (string, error)
}

type Option func(*tokenManager)

func WithClock(now func() time.Time) Option {
	return func(m *tokenManager) { m.now = now }
}

type tokenManager struct {
	repo      Repository
	refresher Refresher
	now       func() time.Time
}

func NewTokenManager(repo Repository, refresher Refresher, opts ...Option) TokenManager {
	m := &tokenManager{
		repo:      repo,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *tokenManager) GetCredential(ctx context.Context, orgID string) (*Credential, error) {
	return m.repo.Find(ctx, orgID)
}

func (m *tokenManager) SaveCredential(ctx context.Context, orgID string, tok *oauth.Token, email string) (*Credential, error) {
	now := m.now().UTC()
	c := &Credential{
		OrganizationID: orgID,
		Provider:       Provider,
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		Email:          email,
		IssuedAt:       now,
		TTLMinutes:     ttlMinutes(tok.Expiry, now),
	}
	if err := m.repo.Save(ctx, c); err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to save credential")
		return nil, err
	}
	return c, nil
}

func (m *tokenManager) GetValidAccessToken(ctx context.Context, orgID string) (string, error) {
	log := config.WithContext(ctx)

	cred, err := m.repo.Find(ctx, orgID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNotIntegrated
	}

	if m.now().Add(RefreshBuffer).Before(cred.ExpiresAt()) {
		return cred.AccessToken, nil
	}

	log.WithField("expires_at", cred.ExpiresAt()).Info("Access token near expiry, refreshing")
	tok, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		log.WithError(err).Error("Failed to refresh access token")
		return "", err
	}

	saved, err := m.SaveCredential(ctx, orgID, tok, "")
	if err != nil {
		return "", err
	}
	return saved.AccessToken, nil
}

// ttlMinutes converts the provider's declared expiry into whole minutes.
func ttlMinutes(expiry, issuedAt time.Time) int {
	if expiry.IsZero() {
		return DefaultTTLMinutes
	}
	minutes := int(math.Round(expiry.Sub(issuedAt).Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}
