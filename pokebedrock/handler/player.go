// Package handler holds the player handler used for every connected player.
package handler

import (
	"github.com/df-mc/dragonfly/server/player"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/session"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// PlayerHandler ...
type PlayerHandler struct {
	player.NopHandler

	ranks    *session.Ranks
	session  whitelist.Session
	sessions *session.Registry
}

// NewPlayerHandler registers p as a live session and queues loading its ranks.
func NewPlayerHandler(p *player.Player, sessions *session.Registry, loader *session.RankLoader) *PlayerHandler {
	h := &PlayerHandler{
		ranks:    session.NewRanks(),
		session:  sessions.Add(p),
		sessions: sessions,
	}
	loader.Queue(p.XUID(), p.H(), h.ranks)
	return h
}

// Ranks ...
func (h *PlayerHandler) Ranks() *session.Ranks {
	return h.ranks
}

// Session returns the session p was registered under.
func (h *PlayerHandler) Session() whitelist.Session {
	return h.session
}

// HandleQuit ...
func (h *PlayerHandler) HandleQuit(*player.Player) {
	h.sessions.Remove(h.session.Key)
}
