// Package agent runs the sense, plan, act cycle for GOAP agents.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	btmod "github.com/joeycumines/goap/internal/bt"
	"github.com/joeycumines/goap/internal/domain"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/journal"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoPlan is returned by Run when the chosen goal cannot be planned for.
	ErrNoPlan = errors.New("agent: no plan")
	// ErrCycleLimit is returned by Run when the cycle limit is reached before
	// the goal is satisfied.
	ErrCycleLimit = errors.New("agent: cycle limit reached")
)

// DefaultMaxCycles bounds Run when no positive limit is given.
const DefaultMaxCycles = 10

// Agent owns a blackboard and the executor acting on it, and plans against
// a shared domain.
type Agent struct {
	ID         string
	Domain     *domain.Domain
	Blackboard *btmod.Blackboard
	Executor   *btmod.Executor

	// Goal pins the agent to one goal. Empty means highest priority first.
	Goal string
	// Journal, when set, receives every decision.
	Journal *journal.Journal
	// Interval is the executor tick interval.
	Interval time.Duration
	Logger   *slog.Logger
}

// New creates an agent with a fresh blackboard seeded from the domain. Every
// domain action is simulated by its effect until a handler is registered
// with the executor.
func New(id string, d *domain.Domain) *Agent {
	bb := btmod.NewBlackboard(d.Blackboard)
	exec := btmod.NewExecutor(bb)
	exec.RegisterEffects(d.Planner)
	return &Agent{
		ID:         id,
		Domain:     d,
		Blackboard: bb,
		Executor:   exec,
		Interval:   btmod.DefaultInterval,
		Logger:     slog.Default(),
	}
}

// Decision is the outcome of one Decide call.
type Decision struct {
	ID    uuid.UUID
	Agent string
	// Goal is the chosen goal; zero when Idle.
	Goal   domain.Goal
	Start  goap.WorldState
	Result goap.Result
	// Idle means every candidate goal was already satisfied.
	Idle bool
}

// Sense reads the current world state from the blackboard.
func (a *Agent) Sense() (goap.WorldState, error) {
	return a.Domain.Sensors.Sense(a.Domain.Planner, a.Blackboard.Snapshot())
}

func (a *Agent) candidates() ([]domain.Goal, error) {
	if a.Goal != "" {
		g, err := a.Domain.Goal(a.Goal)
		if err != nil {
			return nil, err
		}
		return []domain.Goal{g}, nil
	}
	return a.Domain.ByPriority(), nil
}

// Decide senses, picks the highest priority unsatisfied goal (declaration
// order breaks ties) and plans for it.
func (a *Agent) Decide(ctx context.Context) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	start, err := a.Sense()
	if err != nil {
		return Decision{}, fmt.Errorf("agent %s: sense: %w", a.ID, err)
	}
	goals, err := a.candidates()
	if err != nil {
		return Decision{}, fmt.Errorf("agent %s: %w", a.ID, err)
	}

	d := Decision{ID: uuid.New(), Agent: a.ID, Start: start, Idle: true}
	for _, g := range goals {
		if start.Satisfies(g.State) {
			continue
		}
		d.Goal, d.Idle = g, false
		d.Result = a.Domain.Planner.Plan(start, g.State)
		break
	}
	if d.Idle {
		return d, nil
	}

	a.logger().Info("[agent] decided",
		"agent", a.ID,
		"goal", d.Goal.Name,
		"outcome", d.Result.Outcome.String(),
		"actions", d.Result.Actions,
		"cost", d.Result.Cost,
	)

	if a.Journal != nil {
		if _, err := a.Journal.Record(ctx, journal.Entry{
			ID:       d.ID,
			Agent:    a.ID,
			Goal:     d.Goal.Name,
			Outcome:  d.Result.Outcome,
			Actions:  d.Result.Actions,
			Cost:     d.Result.Cost,
			Expanded: d.Result.Expanded,
			Start:    d.Start,
			Target:   d.Goal.State,
		}); err != nil {
			return d, fmt.Errorf("agent %s: %w", a.ID, err)
		}
	}
	return d, nil
}

// Report summarizes a Run.
type Report struct {
	Cycles    int
	Decisions []Decision
	// Satisfied is true when Run ended because no goal needed work, or the
	// last executed goal became satisfied.
	Satisfied bool
}

// Run loops decide and execute. It stops once the executed goal is
// satisfied or no goal needs work, and fails when no plan exists or
// maxCycles executions did not get there. A failed execution triggers a new
// decision.
func (a *Agent) Run(ctx context.Context, maxCycles int) (Report, error) {
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	var report Report
	for report.Cycles < maxCycles {
		d, err := a.Decide(ctx)
		if err != nil {
			return report, err
		}
		if d.Idle {
			report.Satisfied = true
			return report, nil
		}
		report.Decisions = append(report.Decisions, d)
		if !d.Result.OK() {
			return report, fmt.Errorf("%w: agent %s goal %q: %s", ErrNoPlan, a.ID, d.Goal.Name, d.Result.Outcome)
		}

		report.Cycles++
		status, err := a.Executor.Run(ctx, d.Result.Actions, a.Interval)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		if err != nil || status != bt.Success {
			a.logger().Warn("[agent] execution failed, replanning",
				"agent", a.ID, "goal", d.Goal.Name, "status", status.String(), "error", err)
			continue
		}

		now, err := a.Sense()
		if err != nil {
			return report, fmt.Errorf("agent %s: sense: %w", a.ID, err)
		}
		if now.Satisfies(d.Goal.State) {
			report.Satisfied = true
			return report, nil
		}
	}
	return report, fmt.Errorf("%w: agent %s after %d cycles", ErrCycleLimit, a.ID, report.Cycles)
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// DecideAll runs Decide for every agent concurrently, at most limit at a
// time (unbounded when limit is not positive). Decisions are returned in
// agent order; the first error cancels the rest.
func DecideAll(ctx context.Context, agents []*Agent, limit int) ([]Decision, error) {
	decisions := make([]Decision, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, a := range agents {
		g.Go(func() error {
			d, err := a.Decide(gctx)
			if err != nil {
				return err
			}
			decisions[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return decisions, nil
}
