// Package main provides gatectl, a command line tool managing the server
// whitelist through its HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/api"
)

const usage = `usage: gatectl [flags] <command> [args]

commands:
  add <player...>      add a player to the whitelist
  remove <player...>   remove a player from the whitelist
  status <player...>   show whether a player is whitelisted
  list                 list every whitelisted player
  sweep                kick every connected player that is not whitelisted
  last                 show the last sweep
  import <file.yaml>   add every player listed in a YAML file
  enable               turn whitelist enforcement on
  disable              turn whitelist enforcement off

flags:
`

// errFailed is returned when a command ran but did not succeed. Its details
// have already been printed.
var errFailed = errors.New("command failed")

func main() {
	var addr string
	var key string
	var yes bool

	flag.StringVar(&addr, "addr", envOr("GATE_ADDR", "http://127.0.0.1:8080"), "API address (default: GATE_ADDR)")
	flag.StringVar(&key, "key", os.Getenv("GATE_KEY"), "API key (default: GATE_KEY)")
	flag.BoolVar(&yes, "y", false, "do not ask for confirmation")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := &cli{
		client:  api.NewClient(addr, key),
		out:     os.Stdout,
		yes:     yes,
		confirm: surveyConfirm,
	}
	if err := c.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// envOr returns the environment variable key, or def when it is not set.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// cli runs gatectl commands against a client.
type cli struct {
	client  *api.Client
	out     io.Writer
	yes     bool
	confirm func(message string) (bool, error)
}
