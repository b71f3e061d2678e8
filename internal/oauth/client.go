package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/provider"
)

var ErrEmptyCode = errors.New("authorization code is empty")

type StateEncoder interface {
	EncodeState(orgID string) (string, error)
}

type Client interface {
	AuthorizationURL(orgID string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	AccountEmail(ctx context.Context, accessToken string) (string, error)
}

type googleClient struct {
	cfg        *oauth2.Config
	state      StateEncoder
	policy     provider.Policy
	apiOptions []option.ClientOption
}

// NewClient builds the OAuth client. apiOptions are appended when talking to
// the userinfo API.
func NewClient(cfg *oauth2.Config, state StateEncoder, policy provider.Policy, apiOptions ...option.ClientOption) Client {
	return &googleClient{
		cfg:        cfg,
		state:      state,
		policy:     policy,
		apiOptions: apiOptions,
	}
}

func (c *googleClient) AuthorizationURL(orgID string) (string, error) {
	state, err := c.state.EncodeState(orgID)
	if err != nil {
		return "", err
	}
	return c.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// ExchangeCode is attempted once. Authorization codes are single use, so a
// retried exchange would only ever fail with invalid_grant.
func (c *googleClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to exchange authorization code")
		return nil, provider.Classify(err)
	}
	return fromOAuth2(tok), nil
}

func (c *googleClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored", provider.ErrInvalidGrant)
	}

	var tok *oauth2.Token
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		tok, err = c.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		return err
	})
	if err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to refresh access token")
		return nil, err
	}

	out := fromOAuth2(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

func (c *googleClient) AccountEmail(ctx context.Context, accessToken string) (string, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.apiOptions...)

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create userinfo client: %w", err)
	}

	var info *oauth2api.Userinfo
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		info, err = svc.Userinfo.Get().Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return info.Email, nil
}
