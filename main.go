package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/df-mc/dragonfly/server/player/chat"
	"github.com/getsentry/sentry-go"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock"
)

// init ...
func init() {
	chat.Global.Subscribe(chat.StdoutSubscriber{})
}

// main ...
func main() {
	conf, err := pokebedrock.ReadConfig("./config.toml")
	if err != nil {
		panic(err)
	}

	level, _ := pokebedrock.ParseLogLevel(conf.PokeBedrock.LogLevel)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if dsn := conf.PokeBedrock.SentryDsn; dsn != "" {
		if err = sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			log.Error("Failed to initialise Sentry", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poke, err := pokebedrock.NewPokeBedrock(ctx, log, conf)
	if err != nil {
		sentry.CaptureException(err)
		log.Error("Failed to start server", "error", err)
		return
	}

	if err = poke.Start(ctx); err != nil {
		sentry.CaptureException(err)
		log.Error("Server stopped with an error", "error", err)
	}
}
