package auth

import (
	"errors"
	"fmt"
	"time"
)

const StateTTL = 15 * time.Minute

var ErrInvalidState = errors.New("invalid oauth state")

// EncodeState produces the opaque state parameter carried through the
// provider's consent screen. The organization id is its subject.
func (i *Issuer) EncodeState(orgID string) (string, error) {
	if orgID == "" {
		return "", fmt.Errorf("%w: empty organization id", ErrInvalidState)
	}
	return i.sign(orgID, "", StateAudience, StateTTL)
}

func (i *Issuer) DecodeState(state string) (string, error) {
	if state == "" {
		return "", fmt.Errorf("%w: empty state", ErrInvalidState)
	}
	claims, err := i.parse(state, StateAudience)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing organization id", ErrInvalidState)
	}
	return claims.Subject, nil
}
