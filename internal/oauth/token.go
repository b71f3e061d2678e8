package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// Token is the provider's answer to a code exchange or a refresh. Expiry is
// zero when the provider did not declare a lifetime.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

func fromOAuth2(t *oauth2.Token) *Token {
	return &Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}
