package whitelist

import "context"

// Resolver maps a gamertag or XUID typed by an operator to a Profile.
// It returns ErrNotFound when nothing matches.
type Resolver interface {
	Resolve(ctx context.Context, query string) (Profile, error)
}

// Store is the durable owner of the allow set. SetAllowStatus must not return
// before the write is durable.
type Store interface {
	AllowStatus(ctx context.Context, id Identity) (bool, error)
	SetAllowStatus(ctx context.Context, id Identity, allowed bool) error
}

// Lister is implemented by stores that can enumerate the allow set.
type Lister interface {
	ListAllowed(ctx context.Context) ([]Identity, error)
}

// Registry enumerates live sessions and terminates them. Terminate returns
// ErrSessionGone when the session is no longer connected.
type Registry interface {
	LiveSessions(ctx context.Context) ([]Session, error)
	Terminate(ctx context.Context, s Session, reason string) error
}

// AdminAuthority reports whether an identity bypasses the whitelist.
type AdminAuthority interface {
	IsAdmin(ctx context.Context, id Identity) (bool, error)
}
