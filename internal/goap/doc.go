// Package goap implements Goal Oriented Action Planning over bit-packed
// boolean world states.
//
// A Planner holds two registries, atoms and actions, each capped at MaxAtoms
// entries with indices assigned in registration order. Every action has a
// precondition and an effect, both expressed as a WorldState, and a
// non-negative cost. Plan runs an A* search from a start state to the first
// state that satisfies a goal, returning the action sequence in execution
// order.
//
// Usage:
//
//	p := goap.NewPlanner()
//	p.SetPrecondition("shoot", "enemylinedup", true)
//	p.SetEffect("shoot", "enemyalive", false)
//
//	var start, goal goap.WorldState
//	p.SetAtom(&start, "enemylinedup", true)
//	p.SetAtom(&start, "enemyalive", true)
//	p.SetAtom(&goal, "enemyalive", false)
//
//	result := p.Plan(start, goal) // result.Actions == []string{"shoot"}
//
// Search semantics worth knowing:
//
//   - Applying an effect replaces the care mask of the state with the
//     effect's care mask. Bits outside that mask keep their raw value and
//     still take part in precondition and goal checks.
//   - Search nodes are identified by the raw Value alone.
//   - Both the open and the closed list are bounded by the planner capacity
//     (DefaultCapacity unless WithCapacity is given). Overflow ends the
//     search with CapacityExceeded and no actions.
package goap
