package integration

import (
	"github.com/hivel/calendar-service/internal/oauth"
)

type IntegrationContainer struct {
	Handler *Handler
}

func NewIntegrationContainer(client oauth.Client, credentials CredentialStore, state StateDecoder, frontendURL string) *IntegrationContainer {
	return &IntegrationContainer{
		Handler: NewHandler(client, credentials, state, frontendURL),
	}
}
