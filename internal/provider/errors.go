package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var (
	ErrInvalidGrant        = errors.New("invalid grant")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrUnauthorized        = errors.New("provider rejected access token")
)

// Classify maps a raw provider error onto the service taxonomy. The original
// error stays in the chain. Errors it does not recognise are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidGrant) || errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrUnauthorized) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" {
			return fmt.Errorf("%w: %w", ErrInvalidGrant, err)
		}
		if retrieveErr.Response != nil && transientStatus(retrieveErr.Response.StatusCode) {
			return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case transientStatus(apiErr.Code):
			return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	return err
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
