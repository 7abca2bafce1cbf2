// Package session keeps track of the players connected to the server.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// Conn is the connection behind a live session.
type Conn interface {
	// Disconnect closes the connection with reason. It returns false if the
	// connection was already gone.
	Disconnect(reason string) bool
}

// handleConn disconnects a player through its entity handle, so it is safe to
// use from outside the player's world.
type handleConn struct {
	h *world.EntityHandle
}

// Disconnect ...
func (c handleConn) Disconnect(reason string) bool {
	var done bool
	c.h.ExecWorld(func(_ *world.Tx, e world.Entity) {
		if p, ok := e.(*player.Player); ok {
			p.Disconnect(reason)
			done = true
		}
	})
	return done
}

// entry ...
type entry struct {
	session whitelist.Session
	conn    Conn
}

// Registry is the set of live sessions. It implements whitelist.Registry.
type Registry struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]entry
}

// NewRegistry ...
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[uuid.UUID]entry),
	}
}

// Add registers a player that just joined and returns its session.
func (r *Registry) Add(p *player.Player) whitelist.Session {
	return r.Track(whitelist.Identity(p.XUID()), p.Name(), handleConn{h: p.H()})
}

// Track registers a connection of the player id. Every connection gets its
// own key, so a quick rejoin never collides with the session it replaces.
func (r *Registry) Track(id whitelist.Identity, name string, conn Conn) whitelist.Session {
	s := whitelist.Session{Key: uuid.New(), ID: id, Name: name}

	r.mu.Lock()
	r.sessions[s.Key] = entry{session: s, conn: conn}
	r.mu.Unlock()

	r.log.Debug("Session opened", "name", name, "xuid", id, "key", s.Key)
	return s
}

// Remove forgets the session with key. It reports whether it was registered.
func (r *Registry) Remove(key uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// LiveSessions returns a snapshot of the live sessions, ordered by name.
func (r *Registry) LiveSessions(context.Context) ([]whitelist.Session, error) {
	r.mu.RLock()
	sessions := make([]whitelist.Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		sessions = append(sessions, e.session)
	}
	r.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b whitelist.Session) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return sessions, nil
}

// Terminate disconnects s with reason. It returns whitelist.ErrSessionGone if s
// has already left. Nothing is attempted once ctx is done. If ctx ends while the
// disconnect is under way, the disconnect still completes and the returned
// error says so.
func (r *Registry) Terminate(ctx context.Context, s whitelist.Session, reason string) error {
	r.mu.RLock()
	e, ok := r.sessions[s.Key]
	r.mu.RUnlock()
	if !ok {
		return whitelist.ErrSessionGone
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan bool, 1)
	go func() {
		ok := e.conn.Disconnect(reason)
		r.Remove(s.Key)
		done <- ok
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("disconnect of %s still pending: %w", s.Name, ctx.Err())
	case ok = <-done:
	}

	if !ok {
		return whitelist.ErrSessionGone
	}
	return nil
}
