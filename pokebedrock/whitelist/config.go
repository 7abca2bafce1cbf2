package whitelist

import "time"

// Config holds the runtime settings of the gate.
type Config struct {
	// Enabled turns enforcement on. Adding and removing identities works
	// regardless of this flag.
	Enabled bool
	// CacheTTL is how long an allow status read from the store is trusted.
	// Zero disables the cache.
	CacheTTL time.Duration
	// SweepInterval is the period of the background sweep. Zero disables it.
	SweepInterval time.Duration
	// SweepWorkers bounds how many sessions a sweep evaluates in parallel.
	SweepWorkers int
	// Reason is the disconnect message shown to swept players.
	Reason string
}

// DefaultConfig returns a disabled gate with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		CacheTTL:      30 * time.Second,
		SweepInterval: 0,
		SweepWorkers:  4,
		Reason:        "You are not whitelisted on this server.",
	}
}
