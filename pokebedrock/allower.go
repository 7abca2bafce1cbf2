package pokebedrock

import (
	"context"
	"log/slog"
	"net"

	"github.com/getsentry/sentry-go"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/locale"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// rememberer records the identity of connecting players.
type rememberer interface {
	Remember(ctx context.Context, xuid, name string) error
}

// Allower decides at connection time whether a player may join.
type Allower struct {
	log      *slog.Logger
	gate     *whitelist.Gate
	identity rememberer
}

// NewAllower ...
func NewAllower(log *slog.Logger, gate *whitelist.Gate, identity rememberer) *Allower {
	return &Allower{log: log, gate: gate, identity: identity}
}

// Allow ...
func (a *Allower) Allow(_ net.Addr, d login.IdentityData, _ login.ClientData) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), internal.AdmitTimeout)
	defer cancel()

	if d.XUID == "" {
		if !a.gate.Config().Enabled {
			return "", true
		}
		a.log.Info("Rejected unauthenticated player", "name", d.DisplayName)
		return locale.Translate("whitelist.not.authenticated"), false
	}

	if err := a.identity.Remember(ctx, d.XUID, d.DisplayName); err != nil {
		a.log.Warn("Failed to record player", "name", d.DisplayName, "xuid", d.XUID, "error", err)
	}

	ok, err := a.gate.Admit(ctx, whitelist.Identity(d.XUID))
	if err != nil {
		a.log.Error("Failed to check whitelist", "name", d.DisplayName, "xuid", d.XUID, "error", err)
		sentry.CaptureException(err)
		return locale.Translate("whitelist.error.loading"), false
	}
	if !ok {
		a.log.Info("Rejected non-whitelisted player", "name", d.DisplayName, "xuid", d.XUID)
		return locale.Translate("whitelist.not.whitelisted"), false
	}
	return "", true
}
