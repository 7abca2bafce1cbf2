package command

import (
	"context"
	"log/slog"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/getsentry/sentry-go"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/locale"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/session"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/util"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// rankHandler ...
type rankHandler interface {
	Ranks() *session.Ranks
}

// rankAllower only lets players of at least rank run a command.
type rankAllower struct {
	rank rank.Rank
}

// Allow ...
func (r rankAllower) Allow(s cmd.Source) bool {
	p, ok := s.(*player.Player)
	if !ok {
		return false
	}
	h, ok := p.Handler().(rankHandler)
	if !ok {
		return false
	}
	return h.Ranks().HasRankOrHigher(r.rank)
}

// Env is what the whitelist commands share: the operator they drive and the
// context their background work runs under.
type Env struct {
	ctx context.Context
	log *slog.Logger
	op  *whitelist.Operator
}

// NewEnv ...
func NewEnv(ctx context.Context, log *slog.Logger, op *whitelist.Operator) *Env {
	return &Env{ctx: ctx, log: log, op: op}
}

// request runs fn for the query made of args in the background and sends the
// outcome to reply. It returns the task so callers can wait on it.
func (e *Env) request(o *cmd.Output, args string, fn func(ctx context.Context, query string) whitelist.Result, reply func(string)) *util.Task[whitelist.Result] {
	query := whitelist.JoinQuery(args)
	if query == "" {
		o.Error(locale.Translate("shell.need.minimum.one.argument"))
		return nil
	}
	o.Print(locale.Translate("cmd.whitelist.pending", query))

	task := util.Go(e.ctx, func(ctx context.Context) (whitelist.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, internal.CommandTimeout)
		defer cancel()
		return fn(ctx, query), nil
	})
	task.Then(func(res whitelist.Result, err error) {
		if err != nil {
			e.capture(err)
			reply(locale.Translate("whitelist.store.unavailable", query))
			return
		}
		if res.Outcome == whitelist.OutcomeStoreUnavailable && res.Err != nil {
			e.capture(res.Err)
		}
		key, args := messageKey(res)
		reply(locale.Translate(key, args...))
	})
	return task
}

// capture logs err and sends it to Sentry.
func (e *Env) capture(err error) {
	e.log.Error("Whitelist command failed", "error", err)
	sentry.CaptureException(err)
}

// replyTo returns a function sending messages to src once a command has
// finished in the background. Players are reached through their entity handle
// so the message still arrives after the command's transaction has ended.
func (e *Env) replyTo(src cmd.Source) func(string) {
	p, ok := src.(*player.Player)
	if !ok {
		return func(msg string) {
			e.log.Info("Command result", "message", msg)
		}
	}
	h := p.H()
	return func(msg string) {
		h.ExecWorld(func(_ *world.Tx, ent world.Entity) {
			if p, ok := ent.(*player.Player); ok {
				p.Message(msg)
			}
		})
	}
}

// messageKey returns the locale key and arguments describing res.
func messageKey(res whitelist.Result) (string, []any) {
	name := res.Name()
	switch res.Outcome {
	case whitelist.OutcomeAdded:
		return "cmd.whitelistadd.added", []any{name}
	case whitelist.OutcomeAlreadyPresent:
		return "cmd.whitelistadd.existing", []any{name}
	case whitelist.OutcomeRemoved:
		return "cmd.whitelistremove.removed", []any{name}
	case whitelist.OutcomeNotPresent:
		return "cmd.whitelistremove.existing", []any{name}
	case whitelist.OutcomeAllowed:
		return "cmd.whiteliststatus.allowed", []any{name}
	case whitelist.OutcomeNotAllowed:
		return "cmd.whiteliststatus.not.allowed", []any{name}
	case whitelist.OutcomeNotFound:
		return "cmd.whitelist.not.found", []any{name}
	case whitelist.OutcomeInvalid:
		return "cmd.whitelist.invalid", []any{name}
	default:
		return "whitelist.store.unavailable", []any{name}
	}
}
