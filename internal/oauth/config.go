package oauth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"

	"github.com/hivel/calendar-service/internal/config"
)

var Scopes = []string{
	gcal.CalendarReadonlyScope,
	oauth2api.UserinfoEmailScope,
	"openid",
}

func NewGoogleConfig(s *config.Settings) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.GoogleClientID,
		ClientSecret: s.GoogleClientSecret,
		RedirectURL:  s.GoogleRedirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}
