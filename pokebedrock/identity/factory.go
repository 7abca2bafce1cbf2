package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Factory is a short-lived, thread-safe memory of recently seen identities,
// indexed both by lowercase gamertag and by XUID.
type Factory struct {
	ttl time.Duration

	mu     sync.RWMutex
	byName map[string]PlayerIdentity
	byXUID map[string]PlayerIdentity

	now func() time.Time
}

// NewFactory creates a Factory whose entries expire after ttl.
func NewFactory(ttl time.Duration) *Factory {
	return &Factory{
		ttl:    ttl,
		byName: make(map[string]PlayerIdentity),
		byXUID: make(map[string]PlayerIdentity),
		now:    time.Now,
	}
}

// Set ...
func (f *Factory) Set(name string, xuid string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if old, ok := f.byXUID[xuid]; ok {
		f.dropName(old)
	}
	// A gamertag belongs to one account at a time.
	if prev, ok := f.byName[strings.ToLower(name)]; ok && prev.XUID != xuid {
		delete(f.byXUID, prev.XUID)
	}
	id := PlayerIdentity{
		DisplayName: name,
		XUID:        xuid,
		Expiration:  f.now().Add(f.ttl),
	}
	f.byName[strings.ToLower(name)] = id
	f.byXUID[xuid] = id
}

// OfName ...
func (f *Factory) OfName(name string) (PlayerIdentity, bool) {
	f.mu.RLock()
	id, ok := f.byName[strings.ToLower(name)]
	f.mu.RUnlock()
	return id, ok && !id.expired(f.now())
}

// OfXUID ...
func (f *Factory) OfXUID(xuid string) (PlayerIdentity, bool) {
	f.mu.RLock()
	id, ok := f.byXUID[xuid]
	f.mu.RUnlock()
	return id, ok && !id.expired(f.now())
}

// Remove ...
func (f *Factory) Remove(xuid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byXUID[xuid]; ok {
		f.dropName(id)
		delete(f.byXUID, xuid)
	}
}

// Prune removes every expired identity and returns how many were removed.
func (f *Factory) Prune() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	var n int
	for xuid, id := range f.byXUID {
		if id.expired(now) {
			delete(f.byXUID, xuid)
			f.dropName(id)
			n++
		}
	}
	return n
}

// dropName removes the name index of id, unless the name has since been taken
// by another XUID.
func (f *Factory) dropName(id PlayerIdentity) {
	key := strings.ToLower(id.DisplayName)
	if cur, ok := f.byName[key]; ok && cur.XUID == id.XUID {
		delete(f.byName, key)
	}
}

// RunCleanup prunes expired identities every interval until ctx is done.
func (f *Factory) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.Prune()
		}
	}
}
