// Package replay records one-time codes that were already accepted so the
// same time step cannot be used twice for one account.
package replay

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTTL is returned when a claim would never expire.
var ErrInvalidTTL = errors.New("replay: ttl must be positive")

// Guard claims keys for a limited time.
type Guard interface {
	// Claim marks key as used for ttl. It reports false when key was already
	// claimed and has not expired yet.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
