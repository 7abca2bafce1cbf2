package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/api"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// importList is the format of an import file:
//
//	players:
//	  - Ash Ketchum
//	  - "2535400000000001"
type importList struct {
	Players []string `yaml:"players"`
}

// readImport reads the players listed in path. Blank entries and duplicates
// are dropped.
func readImport(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read import file: %w", err)
	}
	var list importList
	if err = yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("could not parse import file: %w", err)
	}

	players := lo.Uniq(lo.FilterMap(list.Players, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	}))
	if len(players) == 0 {
		return nil, errors.New("import file lists no players")
	}
	return players, nil
}

// importFile adds every player of the file at path.
func (c *cli) importFile(ctx context.Context, path string) error {
	players, err := readImport(path)
	if err != nil {
		return err
	}
	if ok, err := c.ask(fmt.Sprintf("Add %d players to the whitelist?", len(players))); err != nil || !ok {
		return err
	}

	bar := progressbar.Default(int64(len(players)), "Importing players")
	results := make(map[whitelist.Outcome][]api.Response)
	var unsent []string
	for _, p := range players {
		if err = ctx.Err(); err != nil {
			_ = bar.Exit()
			return err
		}
		res, err := c.client.Add(ctx, p)
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			_ = bar.Exit()
			return err
		case err != nil:
			unsent = append(unsent, fmt.Sprintf("Could not send %s: %v", p, err))
		default:
			results[res.Outcome] = append(results[res.Outcome], res)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintf(c.out, "\n%d added, %d already present\n",
		len(results[whitelist.OutcomeAdded]), len(results[whitelist.OutcomeAlreadyPresent]))

	failures := len(unsent)
	for _, line := range unsent {
		fmt.Fprintln(c.out, line)
	}
	for outcome, rs := range results {
		if !failed(outcome) {
			continue
		}
		for _, res := range rs {
			fmt.Fprintln(c.out, describe(res))
			failures++
		}
	}
	if failures > 0 {
		fmt.Fprintf(c.out, "%d players could not be imported\n", failures)
		return errFailed
	}
	return nil
}
