package pokebedrock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/api"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/command"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/db"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/handler"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/identity"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/internal"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/locale"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/session"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// PokeBedrock represents the main server struct.
// It holds configuration, logging, and manages various server components.
type PokeBedrock struct {
	log  *slog.Logger
	conf Config

	srv *server.Server
	db  *db.DB

	gate      *whitelist.Gate
	operator  *whitelist.Operator
	sweeper   *whitelist.Sweeper
	resolver  *identity.Resolver
	authority *rank.Authority

	sessions *session.Registry
	ranks    *session.RankLoader
	api      *api.Server
}

// NewPokeBedrock connects to the database and builds the server with the
// whitelist installed as its allower.
func NewPokeBedrock(ctx context.Context, log *slog.Logger, conf Config) (*PokeBedrock, error) {
	if conf.Database.MigrateOnStart {
		log.Info("Running database migrations...")
		if err := db.RunMigrations(ctx, conf.Database.DSN); err != nil {
			return nil, err
		}
	}
	database, err := db.New(ctx, conf.Database.DSN)
	if err != nil {
		return nil, err
	}

	roles, err := rank.NewRoles(conf.Ranks)
	if err != nil {
		database.Close()
		return nil, err
	}

	poke := &PokeBedrock{
		log:      log,
		conf:     conf,
		db:       database,
		sessions: session.NewRegistry(log),
	}
	poke.authority = rank.NewAuthority(log, rank.NewService(log, conf.Service.RolesURL),
		roles, conf.Whitelist.ExemptRank, conf.Service.RoleCacheTTL.D())
	poke.resolver = identity.NewResolver(log, db.NewPlayerRepository(database.Pool()), conf.Whitelist.IdentityTTL.D())
	poke.gate = whitelist.NewGate(log, conf.WhitelistConfig(),
		db.NewWhitelistRepository(database.Pool()), poke.authority, poke.sessions)
	poke.sweeper = whitelist.NewSweeper(log, poke.gate, conf.Whitelist.SweepInterval.D())
	poke.operator = whitelist.NewOperator(log, poke.gate, poke.resolver, poke.sweeper)
	poke.ranks = session.NewRankLoader(log, poke.authority, internal.RankLoadWorkers)
	if conf.Service.APIAddress != "" {
		poke.api = api.NewServer(log, conf.Service.APIKey, poke.operator, poke.sweeper, poke.resolver)
	}

	if err = poke.loadLocales(); err != nil {
		database.Close()
		return nil, err
	}
	poke.loadCommands(ctx)

	log.Info("Starting Server...")
	c, err := conf.UserConfig.Config(log)
	if err != nil {
		database.Close()
		return nil, err
	}
	c.Allower = NewAllower(log, poke.gate, poke.resolver)

	poke.srv = c.New()
	poke.srv.CloseOnProgramEnd()

	log.Info("Whitelist loaded", "enabled", poke.gate.Config().Enabled,
		"exempt_rank", conf.Whitelist.ExemptRank.Name())
	return poke, nil
}

// Start listens for players and runs the background services. It blocks until
// ctx is done or the server is closed.
func (poke *PokeBedrock) Start(ctx context.Context) error {
	poke.srv.Listen()

	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)

	if poke.api != nil {
		eg.Go(func() error {
			if err := poke.api.Run(ctx, poke.conf.Service.APIAddress); err != nil {
				return fmt.Errorf("api: %w", err)
			}
			return nil
		})
	}
	eg.Go(func() error { return poke.sweeper.Run(ctx) })
	eg.Go(func() error { return poke.ranks.Run(ctx) })
	eg.Go(func() error { return poke.resolver.Run(ctx) })
	eg.Go(func() error {
		<-ctx.Done()
		return poke.srv.Close()
	})

	for p := range poke.srv.Accept() {
		poke.accept(p)
	}
	cancel()

	err := eg.Wait()
	poke.Close()
	return err
}

// loadLocales registers all the locales active on the server.
func (poke *PokeBedrock) loadLocales() error {
	path := poke.conf.PokeBedrock.LocalePath
	locales := []language.Tag{
		language.English,
	}
	for _, l := range locales {
		if err := locale.Register(l, path); err != nil {
			return err
		}
	}
	return nil
}

// loadCommands registers all the commands on the server.
func (poke *PokeBedrock) loadCommands(ctx context.Context) {
	env := command.NewEnv(ctx, poke.log, poke.operator)
	ranks := poke.conf.Commands

	cmd.Register(command.NewWhitelistAdd(env, ranks.WhitelistAddRank))
	cmd.Register(command.NewWhitelistRemove(env, ranks.WhitelistRemoveRank))
	cmd.Register(command.NewWhitelistStatus(env, ranks.WhitelistStatusRank))
	cmd.Register(command.NewKickNonWhitelisted(env, ranks.KickNonWhitelistedRank))
}

// accept handles a new player joining the server.
func (poke *PokeBedrock) accept(p *player.Player) {
	h := handler.NewPlayerHandler(p, poke.sessions, poke.ranks)
	p.Handle(h)
}

// Close releases the resources of the server.
func (poke *PokeBedrock) Close() {
	poke.log.Debug("Closing Database...")
	poke.db.Close()
}
