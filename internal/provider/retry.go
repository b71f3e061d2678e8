package provider

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"

	"github.com/hivel/calendar-service/internal/config"
)

type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		Initial:     500 * time.Millisecond,
		Max:         8 * time.Second,
		Multiplier:  2,
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. Errors returned by op are classified first.
// A Retry-After longer than Max ends the retries with the last error.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	bo := gax.Backoff{
		Initial:    p.Initial,
		Max:        p.Max,
		Multiplier: p.Multiplier,
	}
	log := config.WithContext(ctx)

	var err error
	for attempt := 1; ; attempt++ {
		err = Classify(op(ctx))
		if err == nil || !IsRetryable(err) || attempt >= attempts {
			return err
		}

		pause := bo.Pause()
		if ra, ok := RetryAfter(err); ok {
			if p.Max > 0 && ra > p.Max {
				log.WithError(err).WithField("retry_after", ra.String()).Warn("Provider retry delay exceeds limit, giving up")
				return err
			}
			if ra > pause {
				pause = ra
			}
		}
		log.WithError(err).WithField("attempt", attempt).Warnf("Provider call failed, retrying in %s", pause)

		if sleepErr := gax.Sleep(ctx, pause); sleepErr != nil {
			return err
		}
	}
}

// RetryAfter returns the delay a 429 response asked for in its Retry-After
// header. ok is false when err carries no usable value.
func RetryAfter(err error) (d time.Duration, ok bool) {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests || apiErr.Header == nil {
		return 0, false
	}
	secs, convErr := strconv.Atoi(apiErr.Header.Get("Retry-After"))
	if convErr != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
