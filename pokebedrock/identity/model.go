package identity

import "time"

// PlayerIdentity is a gamertag/XUID pair seen recently by the server.
type PlayerIdentity struct {
	DisplayName string    `json:"name"`
	XUID        string    `json:"xuid"`
	Expiration  time.Time `json:"expiration"`
}

// expired ...
func (p PlayerIdentity) expired(now time.Time) bool {
	return now.After(p.Expiration)
}
