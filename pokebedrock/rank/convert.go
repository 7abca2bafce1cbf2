// Package rank provides the in-game ranks of players and the conversion between
// external role IDs and those ranks.
package rank

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Config maps rank names to the external role ID that grants them.
type Config struct {
	Roles map[string]string
}

// DefaultConfig returns a Config listing every rank with no role ID set, so
// the generated config file shows every rank that can be mapped.
func DefaultConfig() Config {
	roles := make(map[string]string, len(infos))
	for _, r := range All()[1:] {
		roles[r.Name()] = ""
	}
	return Config{Roles: roles}
}

// Roles converts external role IDs into in-game ranks.
type Roles struct {
	toRank map[string]Rank
}

// NewRoles builds the role to rank mapping from conf. Ranks without a role ID
// are skipped.
func NewRoles(conf Config) (*Roles, error) {
	m := make(map[string]Rank, len(conf.Roles))
	for name, id := range conf.Roles {
		if id == "" {
			continue
		}
		r, err := ParseRank(name)
		if err != nil {
			return nil, fmt.Errorf("rank config: %w", err)
		}
		if other, ok := m[id]; ok && other != r {
			return nil, fmt.Errorf("rank config: role %s is mapped to both %s and %s", id, other, r)
		}
		m[id] = r
	}
	return &Roles{toRank: m}, nil
}

// Ranks converts roles into the ranks they grant, sorted in ascending order.
// Unknown roles are ignored.
func (r *Roles) Ranks(roles []string) []Rank {
	ranks := lo.Uniq(lo.FilterMap(roles, func(role string, _ int) (Rank, bool) {
		ra, ok := r.toRank[role]
		return ra, ok
	}))
	slices.Sort(ranks)
	return ranks
}

// Highest returns the highest of ranks, or UnLinked if there are none.
func Highest(ranks []Rank) Rank {
	if len(ranks) == 0 {
		return UnLinked
	}
	return slices.Max(ranks)
}
