package rank

import (
	"fmt"
	"strings"

	"github.com/sandertv/gophertunnel/minecraft/text"
)

// Rank represents the rank of a player. Higher ranks compare greater.
type Rank int

// Rank constants, lowest first.
const (
	UnLinked Rank = iota
	Trainer
	ServerBooster
	Supporter
	Premium
	ContentCreator
	MonthlyTournamentMVP
	RetiredStaff
	Helper
	Team
	Translator
	DevelopmentTeam
	TrailModeler
	Modeler
	HeadModeler
	Moderator
	SeniorModerator
	HeadModerator
	Admin
	Manager
	Owner
)

// info is how a rank is shown in game.
type info struct {
	name   string
	colour string
	prefix bool
}

// infos is indexed by Rank.
var infos = [...]info{
	UnLinked:             {"UnLinked", "grey", false},
	Trainer:              {"Trainer", "white", true},
	ServerBooster:        {"Server Booster", "diamond", true},
	Supporter:            {"Supporter", "emerald", true},
	Premium:              {"Premium", "green", true},
	ContentCreator:       {"Content Creator", "amethyst", true},
	MonthlyTournamentMVP: {"Monthly Tournament MVP", "aqua", true},
	RetiredStaff:         {"Retired Staff", "grey", true},
	Helper:               {"Helper", "yellow", true},
	Team:                 {"Team", "gold", true},
	Translator:           {"Translator", "dark-yellow", true},
	DevelopmentTeam:      {"Development Team", "redstone", true},
	TrailModeler:         {"Trail Modeler", "dark-green", true},
	Modeler:              {"Modeler", "purple", true},
	HeadModeler:          {"Head Modeler", "dark-purple", true},
	Moderator:            {"Moderator", "blue", true},
	SeniorModerator:      {"Senior Moderator", "aqua", true},
	HeadModerator:        {"Head Moderator", "dark-blue", true},
	Admin:                {"Admin", "red", true},
	Manager:              {"Manager", "purple", true},
	Owner:                {"Owner", "dark-red", true},
}

// All returns every rank, lowest first.
func All() []Rank {
	ranks := make([]Rank, len(infos))
	for i := range infos {
		ranks[i] = Rank(i)
	}
	return ranks
}

// valid ...
func (r Rank) valid() bool {
	return r >= 0 && int(r) < len(infos)
}

// Name returns the human-readable name of the rank.
func (r Rank) Name() string {
	if !r.valid() {
		return "Unknown"
	}
	return infos[r].name
}

// String ...
func (r Rank) String() string {
	return r.Name()
}

// NameTag formats a player's name according to their rank. If the rank uses a
// prefix, the rank's title is prepended.
func (r Rank) NameTag(name string) string {
	if !r.valid() {
		return text.Colourf("<grey>%s</grey>", name)
	}
	i := infos[r]
	if i.prefix {
		return text.Colourf("<%s>%s %s</%s>", i.colour, i.name, name, i.colour)
	}
	return text.Colourf("<%s>%s</%s>", i.colour, name, i.colour)
}

// key normalises a rank name for lookups: "Head Moderator", "head_moderator"
// and "HEADMODERATOR" are the same rank.
func key(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// ParseRank returns the rank named s.
func ParseRank(s string) (Rank, error) {
	k := key(s)
	for r, i := range infos {
		if key(i.name) == k {
			return Rank(r), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// MarshalText ...
func (r Rank) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.Name()), nil
}

// UnmarshalText ...
func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
