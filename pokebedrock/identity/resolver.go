// Package identity resolves the names operators type into player identities.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/db"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// xuidLength is the length of an Xbox Live XUID. Shorter digit strings are only
// accepted when they belong to a known player.
const xuidLength = 16

// PlayerStore is the durable record of players seen by the server.
// Lookups return nil, nil when the player is unknown.
type PlayerStore interface {
	Upsert(ctx context.Context, xuid, name string) error
	ByXUID(ctx context.Context, xuid string) (*db.Player, error)
	ByName(ctx context.Context, name string) (*db.Player, error)
}

// Resolver maps gamertags and XUIDs to profiles. Recently seen players are
// answered from memory, everything else from the player store.
type Resolver struct {
	log     *slog.Logger
	players PlayerStore
	factory *Factory
}

// NewResolver ...
func NewResolver(log *slog.Logger, players PlayerStore, ttl time.Duration) *Resolver {
	return &Resolver{
		log:     log,
		players: players,
		factory: NewFactory(ttl),
	}
}

// Remember records that xuid connected under name.
func (r *Resolver) Remember(ctx context.Context, xuid, name string) error {
	if !whitelist.IsXUID(xuid) {
		return fmt.Errorf("%w: %q", whitelist.ErrInvalidIdentity, xuid)
	}
	r.factory.Set(name, xuid)

	if err := r.players.Upsert(ctx, xuid, name); err != nil {
		return fmt.Errorf("%w: remember %s: %w", whitelist.ErrStoreUnavailable, xuid, err)
	}
	return nil
}

// Resolve implements whitelist.Resolver. A query made only of digits is taken
// as an XUID. A full-length XUID always resolves, so players can be whitelisted
// before they ever joined. Anything else is looked up as a gamertag.
func (r *Resolver) Resolve(ctx context.Context, query string) (whitelist.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return whitelist.Profile{}, fmt.Errorf("%w: empty query", whitelist.ErrInvalidIdentity)
	}

	if whitelist.IsXUID(query) {
		return r.resolveXUID(ctx, query)
	}
	return r.resolveName(ctx, query)
}

// resolveXUID ...
func (r *Resolver) resolveXUID(ctx context.Context, xuid string) (whitelist.Profile, error) {
	profile := whitelist.Profile{ID: whitelist.Identity(xuid), Name: xuid}
	if id, ok := r.factory.OfXUID(xuid); ok {
		profile.Name = id.DisplayName
		return profile, nil
	}

	p, err := r.players.ByXUID(ctx, xuid)
	if err != nil {
		return whitelist.Profile{}, fmt.Errorf("%w: resolve %s: %w", whitelist.ErrStoreUnavailable, xuid, err)
	}
	switch {
	case p != nil:
		profile.Name = p.Name
	case len(xuid) != xuidLength:
		r.log.Debug("No player found", "xuid", xuid)
		return whitelist.Profile{}, fmt.Errorf("%w: %q", whitelist.ErrNotFound, xuid)
	}
	return profile, nil
}

// resolveName ...
func (r *Resolver) resolveName(ctx context.Context, name string) (whitelist.Profile, error) {
	if id, ok := r.factory.OfName(name); ok {
		return whitelist.Profile{ID: whitelist.Identity(id.XUID), Name: id.DisplayName}, nil
	}

	p, err := r.players.ByName(ctx, name)
	if err != nil {
		return whitelist.Profile{}, fmt.Errorf("%w: resolve %q: %w", whitelist.ErrStoreUnavailable, name, err)
	}
	if p == nil {
		r.log.Debug("No player found", "name", name)
		return whitelist.Profile{}, fmt.Errorf("%w: %q", whitelist.ErrNotFound, name)
	}
	r.factory.Set(p.Name, p.XUID)
	return whitelist.Profile{ID: whitelist.Identity(p.XUID), Name: p.Name}, nil
}

// Run prunes expired in-memory identities until ctx is done.
func (r *Resolver) Run(ctx context.Context) error {
	return r.factory.RunCleanup(ctx, 5*time.Minute)
}
