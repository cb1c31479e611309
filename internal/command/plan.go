package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/journal"
)

// PlanCommand plans once, from the domain start state, for one goal.
type PlanCommand struct {
	*BaseCommand
	runtime

	goal   string
	set    factsFlag
	format string
	record bool
}

// NewPlanCommand creates a new plan command.
func NewPlanCommand(cfg *config.Config, logger *slog.Logger) *PlanCommand {
	return &PlanCommand{
		BaseCommand: NewBaseCommand(
			"plan",
			"Find the cheapest action sequence for a goal",
			"plan [options]",
		),
		runtime: newRuntime(cfg, logger),
	}
}

func (c *PlanCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupDomainFlags(fs)
	c.setupJournalFlag(fs)
	fs.StringVar(&c.goal, "goal", "", "Goal name (default: [plan] goal, else the domain default)")
	fs.Var(&c.set, "set", "Override start facts, e.g. -set armedwithgun=false,alive=true (repeatable)")
	fs.StringVar(&c.format, "format", "text", "Output format: text or json")
	fs.BoolVar(&c.record, "record", false, "Record the plan in the journal (default: [plan] journal)")
}

type planOutput struct {
	Domain   string   `json:"domain"`
	Goal     string   `json:"goal"`
	Start    string   `json:"start"`
	Target   string   `json:"target"`
	Outcome  string   `json:"outcome"`
	Actions  []string `json:"actions"`
	Cost     int      `json:"cost"`
	Expanded int      `json:"expanded"`
}

func (c *PlanCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}
	if c.format != "text" && c.format != "json" {
		return fmt.Errorf("unknown format %q", c.format)
	}

	d, err := c.loadDomain()
	if err != nil {
		return err
	}
	start, err := c.set.apply(d.Planner, d.Start)
	if err != nil {
		return err
	}

	name := c.goal
	if name == "" {
		name = c.schema.ResolveCommand(c.config, "plan", "goal")
	}
	goal, err := d.Resolve(name)
	if err != nil {
		return err
	}

	result := d.Planner.Plan(start, goal.State)

	if c.record || c.schema.ResolveBool(c.config, "plan", "journal") {
		j, err := c.openJournal()
		if err != nil {
			return err
		}
		_, err = j.Record(ctx, journal.Entry{
			ID:       uuid.New(),
			Agent:    "cli",
			Goal:     goal.Name,
			Outcome:  result.Outcome,
			Actions:  result.Actions,
			Cost:     result.Cost,
			Expanded: result.Expanded,
			Start:    start,
			Target:   goal.State,
		})
		if cerr := j.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	out := planOutput{
		Domain:   d.Name,
		Goal:     goal.Name,
		Start:    d.Planner.Format(start),
		Target:   d.Planner.Format(goal.State),
		Outcome:  result.Outcome.String(),
		Actions:  result.Actions,
		Cost:     result.Cost,
		Expanded: result.Expanded,
	}
	if out.Actions == nil {
		out.Actions = []string{}
	}

	if c.format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(stdout, 0, 8, 1, ' ', 0)
	_, _ = fmt.Fprintf(w, "domain:\t%s\n", out.Domain)
	_, _ = fmt.Fprintf(w, "goal:\t%s (%s)\n", out.Goal, out.Target)
	_, _ = fmt.Fprintf(w, "start:\t%s\n", out.Start)
	_, _ = fmt.Fprintf(w, "outcome:\t%s\n", out.Outcome)
	_ = w.Flush()
	if !result.OK() {
		return fmt.Errorf("no plan for goal %q: %s", goal.Name, result.Outcome)
	}
	_, _ = fmt.Fprintf(stdout, "cost: %d (expanded %d)\n", out.Cost, out.Expanded)
	for i, action := range out.Actions {
		_, _ = fmt.Fprintf(stdout, "  %d. %s\n", i+1, action)
	}
	return nil
}
