// Package cli provides the calendar-service command line.
package cli

import (
	"context"
	"errors"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/hivel/calendar-service/internal/calendar"
	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/container"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "calendar-service",
	Short: "Google Calendar integration service",
	Long: `calendar-service connects organizations to Google Calendar through
OAuth, keeps their tokens fresh and ingests calendar events.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading settings")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

type syncRunner interface {
	Sync(ctx context.Context, orgID string, window calendar.Window, persist bool) (*calendar.SyncResult, error)
	Calendars(ctx context.Context, orgID string) ([]string, error)
}

type authorizer interface {
	AuthorizationURL(orgID string) (string, error)
}

// app is the subset of the container the commands need.
type app struct {
	port    string
	router  *chi.Mux
	syncer  syncRunner
	oauth   authorizer
	migrate func() error
	close   func() error
}

// buildApp is swapped in tests.
var buildApp = func(ctx context.Context) (*app, error) {
	settings, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	c, err := container.New(ctx, settings)
	if err != nil {
		return nil, err
	}
	return &app{
		port:    settings.Port,
		router:  c.Router(),
		syncer:  c.CalendarContainer.Syncer,
		oauth:   c.OAuthContainer.Client,
		migrate: func() error { return container.Migrate(c.DB) },
		close:   c.Close,
	}, nil
}

func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	if buildApp == nil {
		return errors.New("application not configured")
	}
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	if a.close != nil {
		defer func() {
			if cerr := a.close(); cerr != nil {
				config.Logger.WithError(cerr).Warn("failed to close database")
			}
		}()
	}
	return fn(a)
}
