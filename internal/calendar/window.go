package calendar

import (
	"errors"
	"time"
)

const (
	DefaultLookbackDays = 30
	timeLayout          = time.RFC3339
)

var ErrInvalidWindow = errors.New("start must be before end")

// Window is the half-open interval [Start, End) events are fetched for.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow covers the last 30 days from midnight UTC through the last
// second of the current UTC day.
func DefaultWindow(now time.Time) Window {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Start: today.AddDate(0, 0, -DefaultLookbackDays),
		End:   today.Add(24*time.Hour - time.Second),
	}
}

func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}
