package oauth

import (
	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/provider"
)

type OAuthContainer struct {
	Client Client
}

func NewOAuthContainer(settings *config.Settings, state StateEncoder, policy provider.Policy) *OAuthContainer {
	return &OAuthContainer{
		Client: NewClient(NewGoogleConfig(settings), state, policy),
	}
}
