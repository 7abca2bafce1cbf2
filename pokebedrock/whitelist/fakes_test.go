package whitelist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store that can be made to fail and that records
// concurrent writes to the same identity.
type memStore struct {
	mu      sync.Mutex
	allowed map[Identity]bool

	reads  atomic.Int64
	writes atomic.Int64

	failRead  atomic.Bool
	failWrite atomic.Bool

	inflight    map[Identity]int
	maxInflight atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{allowed: make(map[Identity]bool), inflight: make(map[Identity]int)}
}

func (m *memStore) AllowStatus(_ context.Context, id Identity) (bool, error) {
	m.reads.Add(1)
	if m.failRead.Load() {
		return false, errBoom
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowed[id], nil
}

func (m *memStore) SetAllowStatus(_ context.Context, id Identity, allowed bool) error {
	m.writes.Add(1)
	if m.failWrite.Load() {
		return errBoom
	}

	m.mu.Lock()
	m.inflight[id]++
	if n := int64(m.inflight[id]); n > m.maxInflight.Load() {
		m.maxInflight.Store(n)
	}
	m.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if allowed {
		m.allowed[id] = true
	} else {
		delete(m.allowed, id)
	}
	m.inflight[id]--
	return nil
}

func (m *memStore) ListAllowed(context.Context) ([]Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]Identity, 0, len(m.allowed))
	for id := range m.allowed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// fakeAdmins is an AdminAuthority backed by a map.
type fakeAdmins struct {
	admins map[Identity]bool
	errs   map[Identity]error
}

func (f fakeAdmins) IsAdmin(_ context.Context, id Identity) (bool, error) {
	if err := f.errs[id]; err != nil {
		return false, err
	}
	return f.admins[id], nil
}

// fakeRegistry is a Registry over a fixed set of sessions.
type fakeRegistry struct {
	mu         sync.Mutex
	sessions   []Session
	gone       map[Identity]bool
	failTerm   map[Identity]bool
	listErr    error
	terminated []Identity
	reasons    []string
}

func (f *fakeRegistry) LiveSessions(context.Context) ([]Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.sessions), nil
}

func (f *fakeRegistry) Terminate(_ context.Context, s Session, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gone[s.ID] {
		return ErrSessionGone
	}
	if f.failTerm[s.ID] {
		return errBoom
	}
	f.terminated = append(f.terminated, s.ID)
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeRegistry) Terminated() []Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.terminated)
}

// fakeResolver resolves gamertags from a map and accepts any XUID.
type fakeResolver struct {
	names map[string]Identity
	err   error
}

func (f fakeResolver) Resolve(_ context.Context, query string) (Profile, error) {
	if f.err != nil {
		return Profile{}, f.err
	}
	if id, ok := f.names[strings.ToLower(query)]; ok {
		return Profile{ID: id, Name: query}, nil
	}
	if IsXUID(query) {
		return Profile{ID: Identity(query), Name: query}, nil
	}
	return Profile{}, ErrNotFound
}

func enabledConfig() Config {
	conf := DefaultConfig()
	conf.Enabled = true
	return conf
}

func newTestGate(store Store, admins AdminAuthority, reg Registry, conf Config) *Gate {
	if admins == nil {
		admins = fakeAdmins{}
	}
	if reg == nil {
		reg = &fakeRegistry{}
	}
	return NewGate(discardLogger(), conf, store, admins, reg)
}
