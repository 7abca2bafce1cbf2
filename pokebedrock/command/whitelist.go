// Package command provides commands for the server.
package command

import (
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
)

// WhitelistAdd adds a player, by gamertag or XUID, to the whitelist.
type WhitelistAdd struct {
	Player cmd.Varargs `name:"player" optional:"true"`

	rankAllower
	env *Env
}

// NewWhitelistAdd ...
func NewWhitelistAdd(env *Env, r rank.Rank) cmd.Command {
	return cmd.New("whitelistadd", "Add a player to the whitelist", []string{"wladd"},
		WhitelistAdd{rankAllower: rankAllower{rank: r}, env: env})
}

// Run ...
func (c WhitelistAdd) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	c.env.request(o, string(c.Player), c.env.op.Add, c.env.replyTo(src))
}

// WhitelistRemove removes a player, by gamertag or XUID, from the whitelist.
type WhitelistRemove struct {
	Player cmd.Varargs `name:"player" optional:"true"`

	rankAllower
	env *Env
}

// NewWhitelistRemove ...
func NewWhitelistRemove(env *Env, r rank.Rank) cmd.Command {
	return cmd.New("whitelistremove", "Remove a player from the whitelist", []string{"wlremove"},
		WhitelistRemove{rankAllower: rankAllower{rank: r}, env: env})
}

// Run ...
func (c WhitelistRemove) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	c.env.request(o, string(c.Player), c.env.op.Remove, c.env.replyTo(src))
}

// WhitelistStatus tells whether a player is on the whitelist.
type WhitelistStatus struct {
	Player cmd.Varargs `name:"player" optional:"true"`

	rankAllower
	env *Env
}

// NewWhitelistStatus ...
func NewWhitelistStatus(env *Env, r rank.Rank) cmd.Command {
	return cmd.New("whiteliststatus", "Check whether a player is whitelisted", []string{"wlstatus"},
		WhitelistStatus{rankAllower: rankAllower{rank: r}, env: env})
}

// Run ...
func (c WhitelistStatus) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	c.env.request(o, string(c.Player), c.env.op.Status, c.env.replyTo(src))
}
