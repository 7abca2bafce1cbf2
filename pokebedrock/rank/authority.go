package rank

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// RoleSource looks up the external roles of a player.
type RoleSource interface {
	RolesOfXUID(ctx context.Context, xuid string) ([]string, error)
}

// lookupTimeout bounds a shared role lookup, retries included, independently of
// the callers waiting on it.
const lookupTimeout = (maxRetries + 1) * requestTimeout

// pruneEvery is the number of cache writes between two passes that drop
// expired entries.
const pruneEvery = 64

// cached ...
type cached struct {
	ranks   []Rank
	expires time.Time
}

// Authority answers rank questions about players, caching the ranks of each
// player for a short time. It implements whitelist.AdminAuthority: players of
// the exempt rank or higher are admins.
type Authority struct {
	log    *slog.Logger
	source RoleSource
	roles  *Roles
	exempt Rank
	ttl    time.Duration

	// timeout bounds each shared lookup.
	timeout time.Duration

	mu     sync.Mutex
	cache  map[string]cached
	writes int
	group  singleflight.Group

	now func() time.Time
}

// NewAuthority ...
func NewAuthority(log *slog.Logger, source RoleSource, roles *Roles, exempt Rank, ttl time.Duration) *Authority {
	return &Authority{
		log:    log,
		source: source,
		roles:  roles,
		exempt: exempt,
		ttl:     ttl,
		timeout: lookupTimeout,
		cache:   make(map[string]cached),
		now:     time.Now,
	}
}

// Exempt returns the lowest rank that counts as admin.
func (a *Authority) Exempt() Rank {
	return a.exempt
}

// IsAdmin ...
func (a *Authority) IsAdmin(ctx context.Context, id whitelist.Identity) (bool, error) {
	ranks, err := a.Ranks(ctx, id.String())
	if err != nil {
		return false, err
	}
	return Highest(ranks) >= a.exempt, nil
}

// Ranks returns the ranks of the player with the given XUID. Players unknown to
// the role service have no ranks. Concurrent lookups of the same player share
// one request, which outlives any single caller; each caller still returns as
// soon as its own ctx is done.
func (a *Authority) Ranks(ctx context.Context, xuid string) ([]Rank, error) {
	if ranks, ok := a.cached(xuid); ok {
		return ranks, nil
	}

	ch := a.group.DoChan(xuid, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		roles, err := a.source.RolesOfXUID(ctx, xuid)
		if errors.Is(err, ErrUserNotFound) {
			roles, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
		ranks := a.roles.Ranks(roles)
		a.store(xuid, ranks)
		return ranks, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			a.log.Debug("Failed to fetch ranks", "xuid", xuid, "error", res.Err)
			return nil, res.Err
		}
		return res.Val.([]Rank), nil
	}
}

// store caches ranks for xuid and periodically drops expired entries.
func (a *Authority) store(xuid string, ranks []Rank) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.cache[xuid] = cached{ranks: ranks, expires: now.Add(a.ttl)}

	a.writes++
	if a.writes%pruneEvery != 0 {
		return
	}
	for k, c := range a.cache {
		if now.After(c.expires) {
			delete(a.cache, k)
		}
	}
}

// Forget drops the cached ranks of xuid.
func (a *Authority) Forget(xuid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cache, xuid)
}

// cached ...
func (a *Authority) cached(xuid string) ([]Rank, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.cache[xuid]
	if !ok {
		return nil, false
	}
	if a.now().After(c.expires) {
		delete(a.cache, xuid)
		return nil, false
	}
	return c.ranks, true
}
