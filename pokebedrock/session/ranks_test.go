package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
)

type fakeRankSource struct {
	mu    sync.Mutex
	ranks map[string][]rank.Rank
	err   error
}

func (f *fakeRankSource) Ranks(_ context.Context, xuid string) ([]rank.Rank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ranks[xuid], f.err
}

func TestRanksSorted(t *testing.T) {
	r := NewRanks()
	assert.Equal(t, rank.UnLinked, r.HighestRank())
	assert.True(t, r.LastRankFetch().IsZero())

	in := []rank.Rank{rank.Admin, rank.Trainer, rank.Moderator}
	r.SetRanks(in)
	assert.Equal(t, []rank.Rank{rank.Trainer, rank.Moderator, rank.Admin}, r.Ranks())
	assert.Equal(t, rank.Admin, in[0], "the input slice is not reordered")
	assert.Equal(t, rank.Admin, r.HighestRank())
	assert.True(t, r.HasRankOrHigher(rank.Moderator))
	assert.False(t, r.HasRankOrHigher(rank.Owner))
	assert.False(t, r.LastRankFetch().IsZero())
}

func TestRankLoaderLoads(t *testing.T) {
	src := &fakeRankSource{ranks: map[string][]rank.Rank{"1": {rank.Moderator, rank.Trainer}}}
	l := NewRankLoader(discardLogger(), src, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()

	ranks := NewRanks()
	require.True(t, l.Queue("1", nil, ranks))
	assert.Eventually(t, func() bool {
		return ranks.HighestRank() == rank.Moderator
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRankLoaderFailureClearsRanks(t *testing.T) {
	src := &fakeRankSource{err: errors.New("boom")}
	l := NewRankLoader(discardLogger(), src, 1)

	ranks := NewRanks()
	ranks.SetRanks([]rank.Rank{rank.Admin})
	l.load(context.Background(), loadRequest{xuid: "1", ranks: ranks})
	assert.Equal(t, rank.UnLinked, ranks.HighestRank())
}

func TestRankLoaderQueueFull(t *testing.T) {
	l := NewRankLoader(discardLogger(), &fakeRankSource{}, 1)
	for range cap(l.queue) {
		require.True(t, l.Queue("1", nil, NewRanks()))
	}
	assert.False(t, l.Queue("1", nil, NewRanks()))
}
