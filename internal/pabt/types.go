package pabt

import (
	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Condition requires an atom to hold a value.
type Condition struct {
	atom  string
	value bool
}

var _ pabtpkg.Condition = (*Condition)(nil)

// NewCondition creates a Condition.
func NewCondition(atom string, value bool) *Condition {
	return &Condition{atom: atom, value: value}
}

func (c *Condition) Key() any { return c.atom }

// Match accepts only a bool equal to the required value.
func (c *Condition) Match(value any) bool {
	v, ok := value.(bool)
	return ok && v == c.value
}

// Effect sets an atom to a value.
type Effect struct {
	atom  string
	value bool
}

var _ pabtpkg.Effect = (*Effect)(nil)

func (e *Effect) Key() any   { return e.atom }
func (e *Effect) Value() any { return e.value }

// Action is a planner action as seen by go-pabt.
type Action struct {
	Name       string
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
}

var _ pabtpkg.IAction = (*Action)(nil)

func (a *Action) Conditions() []pabtpkg.IConditions { return a.conditions }
func (a *Action) Effects() pabtpkg.Effects          { return a.effects }
func (a *Action) Node() bt.Node                     { return a.node }

func (a *Action) satisfies(failed pabtpkg.Condition) bool {
	for _, e := range a.effects {
		if e.Key() == failed.Key() && failed.Match(e.Value()) {
			return true
		}
	}
	return false
}
