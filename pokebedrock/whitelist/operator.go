package whitelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// Outcome is the user-visible result of an operator request. Every outcome is
// distinct so callers never have to guess what happened.
type Outcome string

const (
	OutcomeAdded            Outcome = "added"
	OutcomeAlreadyPresent   Outcome = "already-present"
	OutcomeRemoved          Outcome = "removed"
	OutcomeNotPresent       Outcome = "not-present"
	OutcomeAllowed          Outcome = "allowed"
	OutcomeNotAllowed       Outcome = "not-allowed"
	OutcomeNotFound         Outcome = "not-found"
	OutcomeStoreUnavailable Outcome = "store-unavailable"
	OutcomeInvalid          Outcome = "invalid"
)

// Result is the answer to a single operator request.
type Result struct {
	Outcome Outcome
	Query   string
	Profile Profile
	Err     error
}

// Name returns the best name to show for the target of the request.
func (r Result) Name() string {
	if r.Profile.Name != "" {
		return r.Profile.Name
	}
	return r.Query
}

// Operator implements the operator-facing whitelist commands on top of a Gate:
// names typed by an operator are resolved first, then handed to the gate.
type Operator struct {
	log      *slog.Logger
	gate     *Gate
	resolver Resolver
	store    Store
	sweeper  *Sweeper
}

// NewOperator creates an operator for gate. sweeper may be nil, in which case
// on-demand sweeps are not recorded as the last sweep.
func NewOperator(log *slog.Logger, gate *Gate, resolver Resolver, sweeper *Sweeper) *Operator {
	return &Operator{log: log, gate: gate, resolver: resolver, store: gate.store, sweeper: sweeper}
}

// JoinQuery turns command arguments into a single lookup query.
func JoinQuery(args ...string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// Add resolves query and adds the player to the whitelist.
func (o *Operator) Add(ctx context.Context, query string) Result {
	res, ok := o.resolve(ctx, query)
	if !ok {
		return res
	}

	added, err := o.gate.Add(ctx, res.Profile.ID)
	if err != nil {
		return o.failed(res, "add", err)
	}
	res.Outcome = lo.Ternary(added == Added, OutcomeAdded, OutcomeAlreadyPresent)
	return res
}

// Remove resolves query and removes the player from the whitelist.
func (o *Operator) Remove(ctx context.Context, query string) Result {
	res, ok := o.resolve(ctx, query)
	if !ok {
		return res
	}

	removed, err := o.gate.Remove(ctx, res.Profile.ID)
	if err != nil {
		return o.failed(res, "remove", err)
	}
	res.Outcome = lo.Ternary(removed == Removed, OutcomeRemoved, OutcomeNotPresent)
	return res
}

// Status resolves query and reports whether the player is whitelisted.
func (o *Operator) Status(ctx context.Context, query string) Result {
	res, ok := o.resolve(ctx, query)
	if !ok {
		return res
	}

	allowed, err := o.gate.Allowed(ctx, res.Profile.ID)
	if err != nil {
		return o.failed(res, "status", err)
	}
	res.Outcome = lo.Ternary(allowed, OutcomeAllowed, OutcomeNotAllowed)
	return res
}

// Sweep runs a sweep with the gate's current configuration.
func (o *Operator) Sweep(ctx context.Context) (Report, error) {
	if o.sweeper != nil {
		return o.sweeper.SweepOnce(ctx)
	}
	return o.gate.Sweep(ctx, o.gate.Config())
}

// Gate returns the gate the operator works on.
func (o *Operator) Gate() *Gate {
	return o.gate
}

// List returns the profiles of every whitelisted player, if the store can
// enumerate them.
func (o *Operator) List(ctx context.Context) ([]Profile, error) {
	lister, ok := o.store.(Lister)
	if !ok {
		return nil, errors.New("whitelist store cannot list entries")
	}

	ids, err := lister.ListAllowed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStoreUnavailable, err)
	}

	return lo.Map(ids, func(id Identity, _ int) Profile {
		p, err := o.resolver.Resolve(ctx, id.String())
		if err != nil {
			return Profile{ID: id, Name: id.String()}
		}
		return p
	}), nil
}

// resolve maps query to a profile. When it returns false, the returned result
// already carries the final outcome.
func (o *Operator) resolve(ctx context.Context, query string) (Result, bool) {
	res := Result{Query: strings.TrimSpace(query)}
	if res.Query == "" {
		res.Outcome = OutcomeInvalid
		res.Err = fmt.Errorf("%w: empty player name", ErrInvalidIdentity)
		return res, false
	}

	p, err := o.resolver.Resolve(ctx, res.Query)
	switch {
	case errors.Is(err, ErrNotFound):
		res.Outcome = OutcomeNotFound
		return res, false
	case errors.Is(err, ErrInvalidIdentity):
		res.Outcome, res.Err = OutcomeInvalid, err
		return res, false
	case err != nil:
		return o.failed(res, "resolve", err), false
	}
	res.Profile = p
	return res, true
}

// failed turns an error from the resolver or gate into a store-unavailable result.
func (o *Operator) failed(res Result, op string, err error) Result {
	o.log.Error("Whitelist request failed", "op", op, "query", res.Query, "error", err)
	res.Outcome, res.Err = OutcomeStoreUnavailable, err
	return res
}
