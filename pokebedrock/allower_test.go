package pokebedrock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
	"github.com/stretchr/testify/assert"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

type testStore struct {
	allowed map[whitelist.Identity]bool
	err     error
}

func (s testStore) AllowStatus(_ context.Context, id whitelist.Identity) (bool, error) {
	return s.allowed[id], s.err
}

func (s testStore) SetAllowStatus(context.Context, whitelist.Identity, bool) error {
	return s.err
}

type testAdmins map[whitelist.Identity]bool

func (a testAdmins) IsAdmin(_ context.Context, id whitelist.Identity) (bool, error) {
	return a[id], nil
}

type noSessions struct{}

func (noSessions) LiveSessions(context.Context) ([]whitelist.Session, error) { return nil, nil }

func (noSessions) Terminate(context.Context, whitelist.Session, string) error { return nil }

type seen struct {
	mu    sync.Mutex
	names map[string]string
	err   error
}

func (s *seen) Remember(_ context.Context, xuid, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[xuid] = name
	return s.err
}

func newTestAllower(enabled bool, store testStore) (*Allower, *seen) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	conf := whitelist.DefaultConfig()
	conf.Enabled = enabled
	gate := whitelist.NewGate(log, conf, store, testAdmins{"9": true}, noSessions{})
	s := &seen{names: make(map[string]string)}
	return NewAllower(log, gate, s), s
}

func allow(a *Allower, xuid, name string) bool {
	_, ok := a.Allow(nil, login.IdentityData{XUID: xuid, DisplayName: name}, login.ClientData{})
	return ok
}

func TestAllowerEnforces(t *testing.T) {
	a, s := newTestAllower(true, testStore{allowed: map[whitelist.Identity]bool{"1": true}})

	assert.True(t, allow(a, "1", "Ash"))
	assert.False(t, allow(a, "2", "Gary"))
	assert.True(t, allow(a, "9", "Oak"), "admins are always let in")
	assert.False(t, allow(a, "", "Guest"), "players without an XUID are rejected")

	assert.Equal(t, "Gary", s.names["2"], "every attempt is recorded")
}

func TestAllowerDisabled(t *testing.T) {
	a, _ := newTestAllower(false, testStore{})

	assert.True(t, allow(a, "2", "Gary"))
	assert.True(t, allow(a, "", "Guest"))
}

func TestAllowerFailsClosed(t *testing.T) {
	a, _ := newTestAllower(true, testStore{err: errors.New("database is down")})

	assert.False(t, allow(a, "2", "Gary"))
	assert.True(t, allow(a, "9", "Oak"), "admins get in while the store is down")
}

func TestAllowerIgnoresRememberFailure(t *testing.T) {
	a, s := newTestAllower(true, testStore{allowed: map[whitelist.Identity]bool{"1": true}})
	s.err = errors.New("database is down")

	assert.True(t, allow(a, "1", "Ash"))
}
