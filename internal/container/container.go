package container

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/hivel/calendar-service/internal/auth"
	"github.com/hivel/calendar-service/internal/calendar"
	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/credential"
	"github.com/hivel/calendar-service/internal/integration"
	"github.com/hivel/calendar-service/internal/oauth"
	"github.com/hivel/calendar-service/internal/provider"
	"github.com/hivel/calendar-service/internal/router"
)

type Container struct {
	Settings             *config.Settings
	DB                   *gorm.DB
	Issuer               *auth.Issuer
	OAuthContainer       *oauth.OAuthContainer
	CredentialContainer  *credential.CredentialContainer
	CalendarContainer    *calendar.CalendarContainer
	IntegrationContainer *integration.IntegrationContainer
}

func New(ctx context.Context, settings *config.Settings) (*Container, error) {
	config.InitLogger(settings.LogLevel, settings.LogFormat)

	issuer, err := auth.NewIssuer(settings.JWTSecret)
	if err != nil {
		return nil, err
	}
	cipher, err := config.NewCipher(settings.CryptoKey)
	if err != nil {
		return nil, err
	}
	db, err := config.Connect(ctx, settings.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	policy := provider.DefaultPolicy()
	policy.MaxAttempts = settings.ProviderMaxAttempts

	oauthContainer := oauth.NewOAuthContainer(settings, issuer, policy)
	credentialContainer := credential.NewCredentialContainer(db, cipher, oauthContainer.Client)
	calendarContainer := calendar.NewCalendarContainer(db, settings, credentialContainer.Manager, policy)
	integrationContainer := integration.NewIntegrationContainer(
		oauthContainer.Client,
		credentialContainer.Manager,
		issuer,
		settings.FrontendSuccessURL,
	)

	return &Container{
		Settings:             settings,
		DB:                   db,
		Issuer:               issuer,
		OAuthContainer:       oauthContainer,
		CredentialContainer:  credentialContainer,
		CalendarContainer:    calendarContainer,
		IntegrationContainer: integrationContainer,
	}, nil
}

func (c *Container) Router() *chi.Mux {
	return router.New(router.RouterConfig{
		IntegrationHandler: c.IntegrationContainer.Handler,
		CalendarHandler:    c.CalendarContainer.Handler,
		AuthMiddleware:     auth.Middleware(c.Issuer),
		AllowedOrigin:      c.Settings.CorsAllowedOrigin,
	})
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&credential.IntegrationCredential{},
		&calendar.StoredEvent{},
		&calendar.EventAuthor{},
		&calendar.SyncState{},
	)
}

func (c *Container) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
