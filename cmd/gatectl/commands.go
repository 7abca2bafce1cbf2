package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/api"
	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// run dispatches a single command.
func (c *cli) run(ctx context.Context, name string, args []string) error {
	switch name {
	case "add":
		return c.player(ctx, args, c.client.Add)
	case "remove":
		return c.player(ctx, args, c.client.Remove)
	case "status":
		return c.player(ctx, args, c.client.Status)
	case "list":
		return c.list(ctx)
	case "sweep":
		return c.sweep(ctx)
	case "last":
		report, err := c.client.LastSweep(ctx)
		if err != nil {
			return err
		}
		c.printReport(report)
		return nil
	case "import":
		if len(args) != 1 {
			return fmt.Errorf("import takes exactly one file, got %d arguments", len(args))
		}
		return c.importFile(ctx, args[0])
	case "enable", "disable":
		if err := c.client.SetEnabled(ctx, name == "enable"); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Whitelist %sd.\n", name)
		return nil
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

// player runs a single player request and prints its outcome.
func (c *cli) player(ctx context.Context, args []string, fn func(context.Context, string) (api.Response, error)) error {
	query := whitelist.JoinQuery(args...)
	if query == "" {
		return fmt.Errorf("need at least one argument")
	}
	res, err := fn(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, describe(res))
	if failed(res.Outcome) {
		return errFailed
	}
	return nil
}

// list ...
func (c *cli) list(ctx context.Context) error {
	players, err := c.client.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "XUID\tNAME")
	for _, p := range players {
		fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Name)
	}
	fmt.Fprintf(w, "\n%d whitelisted\n", len(players))
	return w.Flush()
}

// sweep ...
func (c *cli) sweep(ctx context.Context) error {
	enabled, err := c.client.Enabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		fmt.Fprintln(c.out, "The whitelist is disabled, nobody would be kicked.")
		return nil
	}
	if ok, err := c.ask("Kick every connected player that is not whitelisted?"); err != nil || !ok {
		return err
	}

	report, err := c.client.Sweep(ctx)
	if err != nil {
		return err
	}
	c.printReport(report)
	return nil
}

// printReport ...
func (c *cli) printReport(r whitelist.Report) {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tXUID\tVERDICT\tERROR")
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.ID, e.Verdict, e.Error)
	}
	_ = w.Flush()

	counts := lo.CountValuesBy(r.Entries, func(e whitelist.Entry) whitelist.Verdict {
		return e.Verdict
	})
	parts := lo.Map(lo.Keys(counts), func(v whitelist.Verdict, _ int) string {
		return fmt.Sprintf("%s=%d", v, counts[v])
	})
	slices.Sort(parts)
	fmt.Fprintf(c.out, "\n%d evaluated, %d disconnected in %s (%s)\n",
		len(r.Entries), r.Disconnected(), r.Finished.Sub(r.Started), strings.Join(parts, " "))
}

// ask asks the user to confirm, unless -y was given.
func (c *cli) ask(message string) (bool, error) {
	if c.yes {
		return true, nil
	}
	return c.confirm(message)
}

// surveyConfirm ...
func surveyConfirm(message string) (bool, error) {
	var ok bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

// describe renders the outcome of a player request.
func describe(res api.Response) string {
	name := lo.Ternary(res.XUID != "" && res.XUID != res.Name, fmt.Sprintf("%s (%s)", res.Name, res.XUID), res.Name)
	switch res.Outcome {
	case whitelist.OutcomeAdded:
		return name + " added to the whitelist."
	case whitelist.OutcomeAlreadyPresent:
		return name + " is already on the whitelist."
	case whitelist.OutcomeRemoved:
		return name + " removed from the whitelist."
	case whitelist.OutcomeNotPresent:
		return name + " is not on the whitelist."
	case whitelist.OutcomeAllowed:
		return name + " is whitelisted."
	case whitelist.OutcomeNotAllowed:
		return name + " is not whitelisted."
	case whitelist.OutcomeNotFound:
		return "Unable to find a player named " + name + "."
	case whitelist.OutcomeInvalid:
		return name + " is not a valid player name or XUID."
	default:
		return fmt.Sprintf("The whitelist is unavailable, %s was not processed: %s", name, res.Error)
	}
}

// failed reports whether an outcome means the request did not go through.
func failed(o whitelist.Outcome) bool {
	switch o {
	case whitelist.OutcomeNotFound, whitelist.OutcomeInvalid, whitelist.OutcomeStoreUnavailable:
		return true
	}
	return false
}
