package rank

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

type fakeSource struct {
	mu    sync.Mutex
	roles map[string][]string
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeSource) RolesOfXUID(_ context.Context, xuid string) ([]string, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	roles, ok := f.roles[xuid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return roles, nil
}

func newTestAuthority(t *testing.T, src *fakeSource) *Authority {
	t.Helper()
	roles, err := NewRoles(Config{Roles: map[string]string{
		"Trainer":   "100",
		"Moderator": "500",
		"Admin":     "900",
	}})
	require.NoError(t, err)
	return NewAuthority(discardLogger(), src, roles, Moderator, time.Minute)
}

func TestAuthorityIsAdmin(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{
		"1": {"100"},
		"2": {"100", "500"},
		"3": {"900"},
	}}
	a := newTestAuthority(t, src)
	ctx := context.Background()

	for id, want := range map[whitelist.Identity]bool{"1": false, "2": true, "3": true, "4": false} {
		got, err := a.IsAdmin(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, want, got, id)
	}
}

func TestAuthorityCachesRanks(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{"1": {"500"}}}
	a := newTestAuthority(t, src)
	now := time.Now()
	a.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		ok, err := a.IsAdmin(ctx, "1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.EqualValues(t, 1, src.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err := a.IsAdmin(ctx, "1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	a.Forget("1")
	_, err = a.Ranks(ctx, "1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.calls.Load())
}

func TestAuthorityErrorsAreNotCached(t *testing.T) {
	src := &fakeSource{err: ErrServer}
	a := newTestAuthority(t, src)
	ctx := context.Background()

	ok, err := a.IsAdmin(ctx, "1")
	require.ErrorIs(t, err, ErrServer)
	assert.False(t, ok)

	src.mu.Lock()
	src.err, src.roles = nil, map[string][]string{"1": {"900"}}
	src.mu.Unlock()

	ok, err = a.IsAdmin(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthoritySharesConcurrentLookups(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{"1": {"900"}}, delay: 50 * time.Millisecond}
	a := newTestAuthority(t, src)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ranks, err := a.Ranks(context.Background(), "1")
			assert.NoError(t, err)
			assert.Equal(t, []Rank{Admin}, ranks)
		}()
	}
	wg.Wait()
	assert.Less(t, src.calls.Load(), int32(10))
}

// blockingSource answers after delay unless the lookup context ends first.
type blockingSource struct {
	delay time.Duration
	roles []string
	calls atomic.Int32
}

func (b *blockingSource) RolesOfXUID(ctx context.Context, _ string) ([]string, error) {
	b.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(b.delay):
		return b.roles, nil
	}
}

func newBlockingAuthority(t *testing.T, src *blockingSource) *Authority {
	t.Helper()
	roles, err := NewRoles(Config{Roles: map[string]string{"Admin": "900"}})
	require.NoError(t, err)
	return NewAuthority(discardLogger(), src, roles, Moderator, time.Minute)
}

func TestAuthorityWaiterHonoursOwnDeadline(t *testing.T) {
	src := &blockingSource{delay: 500 * time.Millisecond, roles: []string{"900"}}
	a := newBlockingAuthority(t, src)

	leader := make(chan error, 1)
	go func() {
		_, err := a.IsAdmin(context.Background(), "1")
		leader <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := a.IsAdmin(ctx, "1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 300*time.Millisecond)

	require.NoError(t, <-leader)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestAuthorityLeaderCancelDoesNotFailWaiters(t *testing.T) {
	src := &blockingSource{delay: 200 * time.Millisecond, roles: []string{"900"}}
	a := newBlockingAuthority(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := a.IsAdmin(ctx, "1")
		leader <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	waiter := make(chan bool, 1)
	go func() {
		admin, err := a.IsAdmin(context.Background(), "1")
		assert.NoError(t, err)
		waiter <- admin
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-leader, context.Canceled)
	assert.True(t, <-waiter, "the shared lookup finishes for the remaining caller")
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestAuthoritySharedLookupHasOwnTimeout(t *testing.T) {
	src := &blockingSource{delay: time.Second}
	a := newBlockingAuthority(t, src)
	a.timeout = 30 * time.Millisecond

	_, err := a.Ranks(context.Background(), "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAuthorityPrunesExpiredRanks(t *testing.T) {
	src := &fakeSource{roles: map[string][]string{}}
	a := newTestAuthority(t, src)
	now := time.Now()
	a.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range pruneEvery - 1 {
		_, err := a.Ranks(ctx, strconv.Itoa(i))
		require.NoError(t, err)
	}
	now = now.Add(2 * time.Minute)
	_, err := a.Ranks(ctx, "fresh")
	require.NoError(t, err)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Len(t, a.cache, 1)
}
