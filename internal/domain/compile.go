package domain

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/sensor"
)

var (
	ErrUnknownGoal     = errors.New("domain: unknown goal")
	ErrDuplicateGoal   = errors.New("domain: duplicate goal")
	ErrDuplicateAction = errors.New("domain: duplicate action")
	ErrRegistryFull    = errors.New("domain: too many atoms or actions")
	ErrNegativeCost    = errors.New("domain: negative action cost")
)

// Goal is a compiled goal.
type Goal struct {
	Name     string
	Priority int
	State    goap.WorldState
}

// Domain is a compiled document, ready for planning.
type Domain struct {
	Name    string
	Planner *goap.Planner
	Start   goap.WorldState
	// Goals in declaration order.
	Goals   []Goal
	Default string
	Sensors *sensor.Set
	// Blackboard is the initial blackboard: the document's blackboard
	// entries overlaid with the start facts.
	Blackboard map[string]any
}

// Compile registers the document's atoms and actions with a new planner and
// resolves its states, goals and sensors.
func (d *Document) Compile(opts ...goap.Option) (*Domain, error) {
	p := goap.NewPlanner(opts...)

	for _, atom := range d.Atoms {
		if p.AtomIndex(atom) == -1 {
			return nil, fmt.Errorf("%w: atom %q", ErrRegistryFull, atom)
		}
	}

	seen := make(map[string]bool, len(d.Actions))
	for _, a := range d.Actions {
		if seen[a.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAction, a.Name)
		}
		seen[a.Name] = true
		if p.ActionIndex(a.Name) == -1 {
			return nil, fmt.Errorf("%w: action %q", ErrRegistryFull, a.Name)
		}
		for _, f := range a.Pre {
			if !p.SetPrecondition(a.Name, f.Atom, f.Value) {
				return nil, fmt.Errorf("%w: action %q precondition %q", ErrRegistryFull, a.Name, f.Atom)
			}
		}
		for _, f := range a.Effect {
			if !p.SetEffect(a.Name, f.Atom, f.Value) {
				return nil, fmt.Errorf("%w: action %q effect %q", ErrRegistryFull, a.Name, f.Atom)
			}
		}
		if a.Cost != nil {
			if *a.Cost < 0 {
				return nil, fmt.Errorf("%w: action %q cost %d", ErrNegativeCost, a.Name, *a.Cost)
			}
			p.SetCost(a.Name, *a.Cost)
		}
	}

	start, err := state(p, d.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	out := &Domain{
		Name:    d.Name,
		Planner: p,
		Start:   start,
		Default: d.Default,
	}

	for _, g := range d.Goals {
		if slices.ContainsFunc(out.Goals, func(o Goal) bool { return o.Name == g.Name }) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGoal, g.Name)
		}
		ws, err := state(p, g.State)
		if err != nil {
			return nil, fmt.Errorf("goal %q: %w", g.Name, err)
		}
		out.Goals = append(out.Goals, Goal{Name: g.Name, Priority: g.Priority, State: ws})
	}
	if d.Default != "" {
		if _, err := out.Goal(d.Default); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
	}

	specs := make([]sensor.Sensor, 0, len(d.Sensors))
	for _, s := range d.Sensors {
		if p.AtomIndex(s.Atom) == -1 {
			return nil, fmt.Errorf("%w: sensor atom %q", ErrRegistryFull, s.Atom)
		}
		specs = append(specs, sensor.Sensor{Atom: s.Atom, Expression: s.Expression})
	}
	if out.Sensors, err = sensor.New(specs); err != nil {
		return nil, err
	}

	out.Blackboard = maps.Clone(d.Blackboard)
	if out.Blackboard == nil {
		out.Blackboard = make(map[string]any, len(d.Start))
	}
	for _, f := range d.Start {
		out.Blackboard[f.Atom] = f.Value
	}

	return out, nil
}

func state(p *goap.Planner, facts Facts) (goap.WorldState, error) {
	var ws goap.WorldState
	for _, f := range facts {
		if !p.SetAtom(&ws, f.Atom, f.Value) {
			return goap.WorldState{}, fmt.Errorf("%w: atom %q", ErrRegistryFull, f.Atom)
		}
	}
	return ws, nil
}

// Goal returns the named goal.
func (d *Domain) Goal(name string) (Goal, error) {
	for _, g := range d.Goals {
		if g.Name == name {
			return g, nil
		}
	}
	return Goal{}, fmt.Errorf("%w: %q", ErrUnknownGoal, name)
}

// ByPriority returns the goals from highest to lowest priority, keeping
// declaration order among equals.
func (d *Domain) ByPriority() []Goal {
	goals := slices.Clone(d.Goals)
	slices.SortStableFunc(goals, func(a, b Goal) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return goals
}

// Resolve returns the named goal, or the default goal when name is empty.
// Without a default, the highest priority goal is used.
func (d *Domain) Resolve(name string) (Goal, error) {
	if name == "" {
		name = d.Default
	}
	if name == "" {
		if len(d.Goals) == 0 {
			return Goal{}, fmt.Errorf("%w: domain has no goals", ErrUnknownGoal)
		}
		return d.ByPriority()[0], nil
	}
	return d.Goal(name)
}
