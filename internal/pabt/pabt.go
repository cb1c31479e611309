// Package pabt exposes a GOAP domain to go-pabt, so that a behavior tree can
// be grown at tick time instead of following a precomputed plan.
//
// Each planner action becomes a PA-BT action whose single condition group is
// its precondition, whose effects are its effect bits, and whose node is the
// executor's handler. Atoms are read from the blackboard, through a sensor
// when one is defined.
package pabt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
	btmod "github.com/joeycumines/goap/internal/bt"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/sensor"
)

var _ pabtpkg.IState = (*State)(nil)

// State implements pabtpkg.IState over a planner and an executor.
type State struct {
	ctx      context.Context
	planner  *goap.Planner
	executor *btmod.Executor
	sensors  *sensor.Set

	mu      sync.Mutex
	actions map[string]*Action
}

// NewState creates a State. Action nodes are bound to ctx. sensors may be
// nil.
func NewState(ctx context.Context, planner *goap.Planner, executor *btmod.Executor, sensors *sensor.Set) *State {
	return &State{
		ctx:      ctx,
		planner:  planner,
		executor: executor,
		sensors:  sensors,
		actions:  make(map[string]*Action),
	}
}

// Variable returns the current value of an atom: the sensor result when the
// atom has a sensor, otherwise the blackboard entry (nil when absent).
func (s *State) Variable(key any) (any, error) {
	atom, ok := key.(string)
	if !ok {
		return nil, fmt.Errorf("pabt: unsupported key type %T", key)
	}
	bb := s.executor.Blackboard()
	value, sensed, err := s.sensors.Evaluate(atom, bb.Snapshot())
	if err != nil {
		return nil, err
	}
	if sensed {
		return value, nil
	}
	return bb.Get(atom), nil
}

// Actions returns, in registry order, the actions with an effect on the
// failed condition's atom that the condition accepts. A nil condition
// returns every action.
func (s *State) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	var result []pabtpkg.IAction
	for _, name := range s.planner.Actions() {
		action, err := s.action(name)
		if err != nil {
			return nil, err
		}
		if failed == nil || action.satisfies(failed) {
			result = append(result, action)
		}
	}
	if failed != nil {
		slog.Debug("[pabt] actions for failed condition", "atom", failed.Key(), "count", len(result))
	}
	return result, nil
}

func (s *State) action(name string) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.actions[name]; ok {
		return a, nil
	}
	node, err := s.executor.Leaf(s.ctx, name)
	if err != nil {
		return nil, err
	}
	pre, _ := s.planner.Precondition(name)
	effect, _ := s.planner.Effect(name)
	a := &Action{
		Name:       name,
		conditions: []pabtpkg.IConditions{},
		effects:    pabtpkg.Effects{},
		node:       node,
	}
	if group := conditions(s.planner, pre); len(group) > 0 {
		a.conditions = append(a.conditions, group)
	}
	for i, atom := range s.planner.Atoms() {
		if v, ok := effect.Get(i); ok {
			a.effects = append(a.effects, &Effect{atom: atom, value: v})
		}
	}
	s.actions[name] = a
	return a, nil
}

// Goal converts the cared-about atoms of ws into a single condition group.
func Goal(planner *goap.Planner, ws goap.WorldState) []pabtpkg.IConditions {
	group := conditions(planner, ws)
	if len(group) == 0 {
		return nil
	}
	return []pabtpkg.IConditions{group}
}

func conditions(planner *goap.Planner, ws goap.WorldState) pabtpkg.IConditions {
	var group pabtpkg.IConditions
	for i, atom := range planner.Atoms() {
		if v, ok := ws.Get(i); ok {
			group = append(group, &Condition{atom: atom, value: v})
		}
	}
	return group
}

// NewPlan builds the PA-BT tree for goal.
func NewPlan(state *State, goal []pabtpkg.IConditions) (bt.Node, error) {
	plan, err := pabtpkg.INew(state, goal)
	if err != nil {
		return nil, fmt.Errorf("pabt: %w", err)
	}
	return plan.Node(), nil
}
