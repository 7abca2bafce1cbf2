package command

import (
	"context"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/locale"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/util"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// KickNonWhitelisted disconnects every connected player that is neither
// whitelisted nor staff.
type KickNonWhitelisted struct {
	rankAllower
	env *Env
}

// NewKickNonWhitelisted ...
func NewKickNonWhitelisted(env *Env, r rank.Rank) cmd.Command {
	return cmd.New("kicknonwhitelisted", "Kick every connected player that is not whitelisted", nil,
		KickNonWhitelisted{rankAllower: rankAllower{rank: r}, env: env})
}

// Run ...
func (c KickNonWhitelisted) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	c.env.sweep(o, c.env.replyTo(src))
}

// sweep runs a sweep in the background and sends a summary to reply.
func (e *Env) sweep(o *cmd.Output, reply func(string)) *util.Task[whitelist.Report] {
	if !e.op.Gate().Config().Enabled {
		o.Print(locale.Translate("cmd.kicknonwhitelisted.disabled"))
		return nil
	}
	o.Print(locale.Translate("cmd.kicknonwhitelisted.pending"))

	task := util.Go(e.ctx, func(ctx context.Context) (whitelist.Report, error) {
		ctx, cancel := context.WithTimeout(ctx, internal.SweepTimeout)
		defer cancel()
		return e.op.Sweep(ctx)
	})
	task.Then(func(report whitelist.Report, err error) {
		if err != nil {
			e.capture(err)
			reply(locale.Translate("cmd.kicknonwhitelisted.failed"))
			return
		}
		reply(locale.Translate("cmd.kicknonwhitelisted.done",
			report.Disconnected(), len(report.Entries), len(report.Failed())))
	})
	return task
}
