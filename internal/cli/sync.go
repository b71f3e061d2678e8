package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivel/calendar-service/internal/calendar"
	util "github.com/hivel/calendar-service/internal/utils"
)

var (
	syncOrg     string
	syncStart   string
	syncEnd     string
	syncPersist bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch calendar events for an organization",
	Long: `Fetch events from every calendar the organization's Google account can
see. The window defaults to the last 30 days. With --persist the events are
also stored.`,
	RunE: runSync,
}

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars accessible to an organization",
	RunE:  runCalendars,
}

func init() {
	syncCmd.Flags().StringVar(&syncOrg, "org", "", "organization id")
	syncCmd.Flags().StringVar(&syncStart, "start", "", "window start (RFC3339 or YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&syncEnd, "end", "", "window end (RFC3339 or YYYY-MM-DD)")
	syncCmd.Flags().BoolVar(&syncPersist, "persist", false, "store fetched events")
	_ = syncCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(syncCmd)

	calendarsCmd.Flags().StringVar(&syncOrg, "org", "", "organization id")
	_ = calendarsCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(calendarsCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	window, err := cliWindow(syncStart, syncEnd, time.Now())
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app) error {
		result, err := a.syncer.Sync(cmd.Context(), syncOrg, window, syncPersist)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	})
}

func runCalendars(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		ids, err := a.syncer.Calendars(cmd.Context(), syncOrg)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d calendar(s)\n", len(ids))
		return nil
	})
}

func cliWindow(start, end string, now time.Time) (calendar.Window, error) {
	window := calendar.DefaultWindow(now)
	if start != "" {
		t, err := util.ParseTimeParam(start, false)
		if err != nil {
			return calendar.Window{}, err
		}
		window.Start = t
	}
	if end != "" {
		t, err := util.ParseTimeParam(end, true)
		if err != nil {
			return calendar.Window{}, err
		}
		window.End = t
	}
	return window, window.Validate()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
