package whitelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/df-mc/atomic"
	"golang.org/x/sync/errgroup"
)

// Gate decides which players may stay connected to the server. It owns no
// durable state itself: the Store is the single source of truth and the gate
// only keeps a read-through cache in front of it.
type Gate struct {
	log *slog.Logger

	store    Store
	admins   AdminAuthority
	sessions Registry

	conf  atomic.Value[Config]
	cache *cache
	locks keyedMutex
}

// NewGate creates a gate backed by the given collaborators.
func NewGate(log *slog.Logger, conf Config, store Store, admins AdminAuthority, sessions Registry) *Gate {
	g := &Gate{
		log:      log,
		store:    store,
		admins:   admins,
		sessions: sessions,
		cache:    newCache(conf.CacheTTL),
	}
	g.conf.Store(conf)
	return g
}

// Config returns the current configuration of the gate.
func (g *Gate) Config() Config {
	return g.conf.Load()
}

// SetEnabled turns enforcement on or off at runtime.
func (g *Gate) SetEnabled(enabled bool) {
	conf := g.conf.Load()
	conf.Enabled = enabled
	g.conf.Store(conf)

	g.log.Info("Whitelist enforcement changed", "enabled", enabled)
}

// Add puts id in the allow set. It returns AlreadyPresent without writing if
// id is already a member.
func (g *Gate) Add(ctx context.Context, id Identity) (AddResult, error) {
	unlock := g.locks.lock(id)
	defer unlock()

	allowed, err := g.store.AllowStatus(ctx, id)
	if err != nil {
		return 0, storeError("read allow status of", id, err)
	}
	if allowed {
		g.cache.set(id, true)
		return AlreadyPresent, nil
	}

	if err = g.store.SetAllowStatus(ctx, id, true); err != nil {
		g.cache.drop(id)
		return 0, storeError("add", id, err)
	}
	g.cache.set(id, true)

	g.log.Info("Added to whitelist", "xuid", id)
	return Added, nil
}

// Remove takes id out of the allow set. It returns NotPresent without writing
// if id is not a member.
func (g *Gate) Remove(ctx context.Context, id Identity) (RemoveResult, error) {
	unlock := g.locks.lock(id)
	defer unlock()

	allowed, err := g.store.AllowStatus(ctx, id)
	if err != nil {
		return 0, storeError("read allow status of", id, err)
	}
	if !allowed {
		g.cache.set(id, false)
		return NotPresent, nil
	}

	if err = g.store.SetAllowStatus(ctx, id, false); err != nil {
		g.cache.drop(id)
		return 0, storeError("remove", id, err)
	}
	g.cache.set(id, false)

	g.log.Info("Removed from whitelist", "xuid", id)
	return Removed, nil
}

// Allowed reports whether id is in the allow set.
func (g *Gate) Allowed(ctx context.Context, id Identity) (bool, error) {
	if allowed, ok := g.cache.get(id); ok {
		return allowed, nil
	}

	epoch := g.cache.snapshot()
	allowed, err := g.store.AllowStatus(ctx, id)
	if err != nil {
		return false, storeError("read allow status of", id, err)
	}
	g.cache.fill(id, allowed, epoch)
	return allowed, nil
}

// Admit is the connection-time check. A player is admitted when enforcement is
// disabled, when they are in the allow set or when they are an admin.
func (g *Gate) Admit(ctx context.Context, id Identity) (bool, error) {
	if !g.Config().Enabled {
		return true, nil
	}

	allowed, err := g.Allowed(ctx, id)
	if err == nil && allowed {
		return true, nil
	}

	admin, adminErr := g.admins.IsAdmin(ctx, id)
	if adminErr == nil && admin {
		return true, nil
	}
	if err != nil || adminErr != nil {
		return false, errors.Join(err, adminErr)
	}
	return false, nil
}

// Sweep evaluates every live session against the allow set and disconnects
// the ones that are neither allowed nor admins. Nothing happens when conf has
// enforcement disabled. A session whose status cannot be determined is left
// connected; only a failure to list the sessions fails the sweep.
func (g *Gate) Sweep(ctx context.Context, conf Config) (Report, error) {
	report := Report{Started: time.Now()}
	if !conf.Enabled {
		report.Finished = report.Started
		return report, nil
	}

	sessions, err := g.sessions.LiveSessions(ctx)
	if err != nil {
		return report, fmt.Errorf("list live sessions: %w", err)
	}

	entries := make([]Entry, len(sessions))

	var eg errgroup.Group
	eg.SetLimit(max(conf.SweepWorkers, 1))
	for i, s := range sessions {
		eg.Go(func() error {
			entries[i] = g.sweepSession(ctx, s, conf.Reason)
			return nil
		})
	}
	_ = eg.Wait()

	report.Entries = entries
	report.Finished = time.Now()

	g.log.Info("Whitelist sweep finished",
		"evaluated", len(entries),
		"disconnected", report.Disconnected(),
		"failed", len(report.Failed()),
		"duration", report.Finished.Sub(report.Started))
	return report, nil
}

// sweepSession evaluates a single session.
func (g *Gate) sweepSession(ctx context.Context, s Session, reason string) Entry {
	e := Entry{ID: s.ID, Name: s.Name}

	admin, adminErr := g.admins.IsAdmin(ctx, s.ID)
	if adminErr == nil && admin {
		e.Verdict = VerdictAdmin
		return e
	}

	allowed, allowErr := g.Allowed(ctx, s.ID)
	if allowErr == nil && allowed {
		e.Verdict = VerdictAllowed
		return e
	}

	if err := errors.Join(adminErr, allowErr); err != nil {
		g.log.Warn("Leaving player connected, whitelist status unknown",
			"name", s.Name, "xuid", s.ID, "error", err)
		e.Verdict, e.Error = VerdictError, err.Error()
		return e
	}

	err := g.sessions.Terminate(ctx, s, reason)
	switch {
	case errors.Is(err, ErrSessionGone):
		g.log.Debug("Player left before being disconnected", "name", s.Name, "xuid", s.ID)
		e.Verdict, e.Disconnected = VerdictGone, true
	case err != nil:
		g.log.Warn("Failed to disconnect non-whitelisted player",
			"name", s.Name, "xuid", s.ID, "error", err)
		e.Verdict, e.Error = VerdictError, err.Error()
	default:
		g.log.Info("Disconnected non-whitelisted player", "name", s.Name, "xuid", s.ID)
		e.Verdict, e.Disconnected = VerdictDisconnected, true
	}
	return e
}
