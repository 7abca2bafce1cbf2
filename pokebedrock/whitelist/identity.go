// Package whitelist implements the global player access gate: a durable set of
// allowed identities, the connection-time admission check and the sweep that
// disconnects connected players who are no longer permitted.
package whitelist

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxXUIDLength is the longest decimal representation of a 64-bit XUID.
const maxXUIDLength = 20

// Identity is the stable identifier of a player account. On Bedrock this is the
// player's XUID, which is never reused across accounts.
type Identity string

// ParseIdentity parses s as an Identity. Surrounding whitespace is ignored.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if !IsXUID(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	return Identity(s), nil
}

// IsXUID reports whether s looks like a decimal XUID.
func IsXUID(s string) bool {
	if len(s) == 0 || len(s) > maxXUIDLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String ...
func (id Identity) String() string {
	return string(id)
}

// Profile is a resolved player: the identity plus the last known gamertag.
type Profile struct {
	ID   Identity `json:"xuid"`
	Name string   `json:"name"`
}

// Session is a live connection as seen by the gate. Key identifies the
// connection itself, ID the account behind it.
type Session struct {
	Key  uuid.UUID
	ID   Identity
	Name string
}
