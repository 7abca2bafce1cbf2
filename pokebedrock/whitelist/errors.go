package whitelist

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Resolver when a name or id maps to no known player.
	ErrNotFound = errors.New("player not found")
	// ErrStoreUnavailable wraps every failed read or write against the Store.
	ErrStoreUnavailable = errors.New("whitelist store unavailable")
	// ErrSessionGone is returned by a Registry when the session disconnected
	// before it could be terminated.
	ErrSessionGone = errors.New("session already disconnected")
	// ErrInvalidIdentity is returned when a value is not a valid Identity.
	ErrInvalidIdentity = errors.New("invalid identity")
)

// storeError wraps err so that it matches both ErrStoreUnavailable and the cause.
func storeError(op string, id Identity, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStoreUnavailable, op, id, err)
}
