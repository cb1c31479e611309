package bt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/goap"
)

// ErrUnknownAction is returned for plan steps without a registered handler.
var ErrUnknownAction = errors.New("bt: unknown action")

// errStop ends a ticker once the root node settles.
var errStop = errors.New("bt: stop")

// DefaultInterval is the tick interval used by Run when none is given.
const DefaultInterval = 10 * time.Millisecond

// Handler performs one tick of an action. Returning bt.Running asks to be
// ticked again.
type Handler func(ctx context.Context, bb *Blackboard) (bt.Status, error)

// Executor turns plans into behavior trees of registered action handlers.
type Executor struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	bb       *Blackboard
	logger   *slog.Logger
}

// NewExecutor creates an executor whose handlers operate on bb. A nil bb
// gets a fresh blackboard.
func NewExecutor(bb *Blackboard) *Executor {
	if bb == nil {
		bb = new(Blackboard)
	}
	return &Executor{
		handlers: make(map[string]Handler),
		bb:       bb,
		logger:   slog.Default(),
	}
}

// Blackboard returns the blackboard handlers operate on.
func (e *Executor) Blackboard() *Blackboard {
	return e.bb
}

// SetLogger replaces the logger.
func (e *Executor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Register sets the handler for action, replacing any previous one.
func (e *Executor) Register(action string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[action] = h
}

// RegisterEffects registers EffectHandler for every action of planner that
// has no handler yet.
func (e *Executor) RegisterEffects(planner *goap.Planner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, action := range planner.Actions() {
		if _, ok := e.handlers[action]; !ok {
			e.handlers[action] = EffectHandler(planner, action)
		}
	}
}

// Handler returns the handler registered for action.
func (e *Executor) Handler(action string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[action]
	return h, ok
}

// Leaf returns a node ticking the handler of action.
func (e *Executor) Leaf(ctx context.Context, action string) (bt.Node, error) {
	h, ok := e.Handler(action)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return bt.New(func([]bt.Node) (bt.Status, error) {
		status, err := h(ctx, e.bb)
		if err != nil {
			return bt.Failure, fmt.Errorf("action %q: %w", action, err)
		}
		e.logger.Debug("[bt] action ticked", "action", action, "status", status.String())
		return status, nil
	}), nil
}

// Node builds a memorized sequence of the plan's actions, so steps that
// succeeded are not ticked again while later steps run.
func (e *Executor) Node(ctx context.Context, plan []string) (bt.Node, error) {
	children := make([]bt.Node, 0, len(plan))
	for _, action := range plan {
		leaf, err := e.Leaf(ctx, action)
		if err != nil {
			return nil, err
		}
		children = append(children, leaf)
	}
	return bt.New(bt.Memorize(bt.Sequence), children...), nil
}

// Run ticks the plan every interval until it succeeds or fails, a handler
// returns an error, or ctx is done. A context error is returned together
// with bt.Running.
func (e *Executor) Run(ctx context.Context, plan []string, interval time.Duration) (bt.Status, error) {
	node, err := e.Node(ctx, plan)
	if err != nil {
		return bt.Failure, err
	}
	return RunNode(ctx, node, interval)
}

// RunNode drives node with a bt.Ticker until it settles.
func RunNode(ctx context.Context, node bt.Node, interval time.Duration) (bt.Status, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	var (
		mu      sync.Mutex
		settled bool
		result  bt.Status
		failure error
	)
	root := func() (bt.Tick, []bt.Node) {
		tick, children := node()
		return func(children []bt.Node) (bt.Status, error) {
			status, err := tick(children)
			if err == nil && status == bt.Running {
				return status, nil
			}
			mu.Lock()
			settled, result, failure = true, status, err
			mu.Unlock()
			if err != nil {
				return status, err
			}
			return status, errStop
		}, children
	}

	ticker := bt.NewTicker(ctx, interval, root)
	defer ticker.Stop()
	<-ticker.Done()

	mu.Lock()
	defer mu.Unlock()
	switch {
	case settled && failure != nil:
		return bt.Failure, failure
	case settled:
		return result, nil
	case ctx.Err() != nil:
		return bt.Running, ctx.Err()
	default:
		return bt.Failure, ticker.Err()
	}
}

// EffectHandler returns a handler that writes the effect of action into the
// blackboard, one bool per cared-about atom, and succeeds. It stands in for
// real actuators when simulating a plan.
func EffectHandler(planner *goap.Planner, action string) Handler {
	return func(ctx context.Context, bb *Blackboard) (bt.Status, error) {
		if err := ctx.Err(); err != nil {
			return bt.Failure, err
		}
		effect, ok := planner.Effect(action)
		if !ok {
			return bt.Failure, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		for i, atom := range planner.Atoms() {
			if v, cared := effect.Get(i); cared {
				bb.Set(atom, v)
			}
		}
		return bt.Success, nil
	}
}
