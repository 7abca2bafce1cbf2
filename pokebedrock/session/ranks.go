package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/df-mc/atomic"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/text"
	"golang.org/x/sync/errgroup"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/locale"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
)

// Ranks holds the ranks of a connected player.
type Ranks struct {
	mu    sync.Mutex
	ranks []rank.Rank

	lastRankFetch atomic.Value[time.Time]
}

// NewRanks ...
func NewRanks() *Ranks {
	return &Ranks{}
}

// SetRanks updates the player's ranks, keeping them sorted so the highest rank
// is always last.
func (r *Ranks) SetRanks(ranks []rank.Rank) {
	ranks = slices.Clone(ranks)
	slices.Sort(ranks)

	r.mu.Lock()
	r.ranks = ranks
	r.mu.Unlock()
	r.lastRankFetch.Store(time.Now())
}

// HighestRank returns the player's highest rank.
func (r *Ranks) HighestRank() rank.Rank {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rank.Highest(r.ranks)
}

// Ranks returns a copy of the player's ranks.
func (r *Ranks) Ranks() []rank.Rank {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ranks)
}

// HasRankOrHigher ...
func (r *Ranks) HasRankOrHigher(ra rank.Rank) bool {
	return r.HighestRank() >= ra
}

// LastRankFetch returns when the ranks were last set.
func (r *Ranks) LastRankFetch() time.Time {
	return r.lastRankFetch.Load()
}

// RankSource looks up the ranks of a player.
type RankSource interface {
	Ranks(ctx context.Context, xuid string) ([]rank.Rank, error)
}

// loadRequest ...
type loadRequest struct {
	xuid   string
	handle *world.EntityHandle
	ranks  *Ranks
}

// RankLoader loads the ranks of joining players in the background with a
// bounded number of concurrent lookups.
type RankLoader struct {
	log     *slog.Logger
	source  RankSource
	workers int

	queue chan loadRequest
}

// NewRankLoader ...
func NewRankLoader(log *slog.Logger, source RankSource, workers int) *RankLoader {
	return &RankLoader{
		log:     log,
		source:  source,
		workers: max(workers, 1),
		queue:   make(chan loadRequest, internal.RankQueueSize),
	}
}

// Queue schedules loading the ranks of xuid into ranks. handle may be nil; if
// set, the player is told about the outcome. Queue never blocks, so it may be
// called from inside a world transaction, and reports false when the queue is
// full.
func (l *RankLoader) Queue(xuid string, handle *world.EntityHandle, ranks *Ranks) bool {
	select {
	case l.queue <- loadRequest{xuid: xuid, handle: handle, ranks: ranks}:
		return true
	default:
		go notify(handle, locale.Translate("rank.update.queue.full"), "red")
		return false
	}
}

// Run processes queued requests until ctx is done.
func (l *RankLoader) Run(ctx context.Context) error {
	var eg errgroup.Group
	eg.SetLimit(l.workers)
	defer func() { _ = eg.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-l.queue:
			eg.Go(func() error {
				l.load(ctx, req)
				return nil
			})
		}
	}
}

// load ...
func (l *RankLoader) load(ctx context.Context, req loadRequest) {
	ctx, cancel := context.WithTimeout(ctx, internal.RankFetchTimeout)
	defer cancel()

	notify(req.handle, locale.Translate("rank.fetching"), "")
	ranks, err := l.source.Ranks(ctx, req.xuid)
	if err != nil {
		l.log.Warn("Failed to load ranks", "xuid", req.xuid, "error", err)
		req.ranks.SetRanks(nil)
		notify(req.handle, locale.Translate(rank.ErrorKey(err)), "red")
		return
	}
	req.ranks.SetRanks(ranks)
	if len(ranks) == 0 {
		notify(req.handle, locale.Translate("rank.error.not.linked"), "red")
		return
	}

	highest := req.ranks.HighestRank()
	notify(req.handle, locale.Translate("rank.synced", highest.Name()), "green")
	if req.handle != nil {
		req.handle.ExecWorld(func(_ *world.Tx, e world.Entity) {
			if p, ok := e.(*player.Player); ok {
				p.SetNameTag(highest.NameTag(p.Name()))
			}
		})
	}
}

// notify sends msg to the player behind handle as a tip and a chat message.
func notify(handle *world.EntityHandle, msg, colour string) {
	if handle == nil {
		return
	}
	if colour != "" {
		msg = text.Colourf("<%s>%s</%s>", colour, msg, colour)
	}
	handle.ExecWorld(func(_ *world.Tx, e world.Entity) {
		if p, ok := e.(*player.Player); ok {
			p.SendTip(msg)
			p.Message(msg)
		}
	})
}
