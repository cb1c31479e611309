package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/agent"
	btmod "github.com/joeycumines/goap/internal/bt"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/domain"
	"github.com/joeycumines/goap/internal/journal"
	"github.com/joeycumines/goap/internal/pabt"
	"golang.org/x/sync/errgroup"
)

// SimulateCommand runs agents against a domain, executing every plan with
// effect-simulating handlers.
type SimulateCommand struct {
	*BaseCommand
	runtime

	agents    int
	goal      string
	set       factsFlag
	maxCycles int
	interval  time.Duration
	timeout   time.Duration
	reactive  bool
	record    bool
}

// NewSimulateCommand creates a new simulate command.
func NewSimulateCommand(cfg *config.Config, logger *slog.Logger) *SimulateCommand {
	return &SimulateCommand{
		BaseCommand: NewBaseCommand(
			"simulate",
			"Run agents through the sense, plan, act cycle",
			"simulate [options]",
		),
		runtime: newRuntime(cfg, logger),
	}
}

func (c *SimulateCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupDomainFlags(fs)
	c.setupJournalFlag(fs)
	fs.IntVar(&c.agents, "agents", 0, "Agents to run concurrently (default: [simulate] agents)")
	fs.StringVar(&c.goal, "goal", "", "Pin every agent to this goal (default: [simulate] goal, else by priority)")
	fs.Var(&c.set, "set", "Override initial blackboard facts, e.g. -set armedwithgun=false (repeatable)")
	fs.IntVar(&c.maxCycles, "max-cycles", 0, "Plan/execute cycles per agent (default: exec.max-cycles)")
	fs.DurationVar(&c.interval, "interval", 0, "Tick interval (default: exec.interval)")
	fs.DurationVar(&c.timeout, "timeout", 30*time.Second, "Give up after this long")
	fs.BoolVar(&c.reactive, "reactive", false, "Execute with a PA-BT tree that re-plans at tick time")
	fs.BoolVar(&c.record, "record", false, "Record decisions in the journal")
}

type simulation struct {
	agent  *agent.Agent
	report agent.Report
	status bt.Status
	err    error
}

func (c *SimulateCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}

	d, err := c.loadDomain()
	if err != nil {
		return err
	}
	for _, f := range c.set.facts {
		if _, ok := d.Planner.LookupAtom(f.Atom); !ok {
			return fmt.Errorf("unknown atom %q", f.Atom)
		}
	}

	count := c.agents
	if count <= 0 {
		count = max(c.schema.ResolveInt(c.config, "simulate", "agents"), 1)
	}
	goal := c.goal
	if goal == "" {
		goal = c.schema.ResolveCommand(c.config, "simulate", "goal")
	}
	maxCycles := c.maxCycles
	if maxCycles <= 0 {
		maxCycles = c.schema.ResolveInt(c.config, "simulate", "exec.max-cycles")
	}
	interval := c.interval
	if interval <= 0 {
		interval = c.schema.ResolveDuration(c.config, "simulate", "exec.interval")
	}

	var j *journal.Journal
	if c.record {
		if j, err = c.openJournal(); err != nil {
			return err
		}
		defer j.Close()
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sims := make([]*simulation, count)
	for i := range sims {
		a := agent.New(fmt.Sprintf("agent-%d", i+1), d)
		a.Goal = goal
		a.Journal = j
		a.Interval = interval
		a.Logger = c.logger
		a.Executor.SetLogger(c.logger)
		for _, f := range c.set.facts {
			a.Blackboard.Set(f.Atom, f.Value)
		}
		sims[i] = &simulation{agent: a}
	}

	// agents are independent; one failing does not stop the others
	var g errgroup.Group
	for _, sim := range sims {
		g.Go(func() error {
			if c.reactive {
				sim.status, sim.err = c.runReactive(ctx, d, sim.agent, interval)
			} else {
				sim.report, sim.err = sim.agent.Run(ctx, maxCycles)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, sim := range sims {
		if sim.err != nil {
			failed++
		}
		c.print(stdout, d, sim)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d agent(s) failed", failed, len(sims))
	}
	return nil
}

// runReactive ticks a PA-BT tree for the agent's goal until it settles.
func (c *SimulateCommand) runReactive(ctx context.Context, d *domain.Domain, a *agent.Agent, interval time.Duration) (bt.Status, error) {
	g, err := d.Resolve(a.Goal)
	if err != nil {
		return bt.Failure, err
	}
	state := pabt.NewState(ctx, d.Planner, a.Executor, d.Sensors)
	node, err := pabt.NewPlan(state, pabt.Goal(d.Planner, g.State))
	if err != nil {
		return bt.Failure, err
	}
	status, err := btmod.RunNode(ctx, node, interval)
	if err == nil && status != bt.Success {
		err = fmt.Errorf("goal %q: %s", g.Name, status)
	}
	return status, err
}

func (c *SimulateCommand) print(w io.Writer, d *domain.Domain, sim *simulation) {
	a := sim.agent
	now, _ := a.Sense()

	switch {
	case c.reactive && sim.err == nil:
		_, _ = fmt.Fprintf(w, "%s: %s\n", a.ID, strings.ToLower(sim.status.String()))
	case c.reactive:
		_, _ = fmt.Fprintf(w, "%s: FAIL: %v\n", a.ID, sim.err)
	case sim.err != nil:
		_, _ = fmt.Fprintf(w, "%s: FAIL after %d cycle(s): %v\n", a.ID, sim.report.Cycles, sim.err)
	default:
		_, _ = fmt.Fprintf(w, "%s: satisfied after %d cycle(s)\n", a.ID, sim.report.Cycles)
	}
	for _, dec := range sim.report.Decisions {
		_, _ = fmt.Fprintf(w, "  %s: %s [%s] cost %d\n",
			dec.Goal.Name, dec.Result.Outcome, strings.Join(dec.Result.Actions, " "), dec.Result.Cost)
	}
	_, _ = fmt.Fprintf(w, "  state: %s\n", d.Planner.Format(now))
}
