package goap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newScenarioPlanner registers the classic five-action combat domain.
func newScenarioPlanner() *Planner {
	p := NewPlanner()

	p.SetPrecondition("scout", "armedwithgun", true)
	p.SetEffect("scout", "enemyvisible", true)

	p.SetPrecondition("approach", "enemyvisible", true)
	p.SetEffect("approach", "nearenemy", true)

	p.SetPrecondition("aim", "enemyvisible", true)
	p.SetPrecondition("aim", "weaponloaded", true)
	p.SetEffect("aim", "enemylinedup", true)

	p.SetPrecondition("shoot", "enemylinedup", true)
	p.SetEffect("shoot", "enemyalive", false)

	p.SetPrecondition("load", "armedwithgun", true)
	p.SetEffect("load", "weaponloaded", true)

	return p
}

func scenarioStates(p *Planner) (start, goal WorldState) {
	p.SetAtom(&start, "armedwithgun", true)
	p.SetAtom(&start, "weaponloaded", false)
	p.SetAtom(&start, "enemyvisible", false)
	p.SetAtom(&start, "enemylinedup", false)
	p.SetAtom(&start, "enemyalive", true)

	p.SetAtom(&goal, "enemyalive", false)
	return start, goal
}

func TestPlan_Scenario(t *testing.T) {
	t.Parallel()

	p := newScenarioPlanner()
	start, goal := scenarioStates(p)

	result := p.Plan(start, goal)
	require.Equal(t, Found, result.Outcome)
	assert.Equal(t, []string{"scout", "load", "aim", "shoot"}, result.Actions)
	assert.Equal(t, 4, result.Cost)
	assert.Positive(t, result.Expanded)

	assert.Equal(t, result.Actions, p.StartSearch(start, goal), "re-planning is idempotent")
}

func TestPlan_InputsUntouched(t *testing.T) {
	t.Parallel()

	p := newScenarioPlanner()
	start, goal := scenarioStates(p)
	startCopy, goalCopy := start, goal

	_ = p.Plan(start, goal)
	assert.Equal(t, startCopy, start)
	assert.Equal(t, goalCopy, goal)
}

func TestPlan_AlreadySatisfied(t *testing.T) {
	t.Parallel()

	p := newScenarioPlanner()
	start, _ := scenarioStates(p)

	var goal WorldState
	p.SetAtom(&goal, "armedwithgun", true)

	result := p.Plan(start, goal)
	assert.Equal(t, Found, result.Outcome)
	assert.Empty(t, result.Actions)
	assert.Zero(t, result.Cost)

	result = p.Plan(start, WorldState{})
	assert.Equal(t, Found, result.Outcome, "a goal that cares about nothing is always met")
	assert.Empty(t, result.Actions)
}

func TestPlan_PreconditionGating(t *testing.T) {
	t.Parallel()

	p := newScenarioPlanner()
	start, goal := scenarioStates(p)
	p.SetAtom(&start, "armedwithgun", false)

	result := p.Plan(start, goal)
	assert.Equal(t, Exhausted, result.Outcome)
	assert.Empty(t, result.Actions)
	assert.Equal(t, 1, result.Expanded)
}

func TestPlan_NoActions(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	var start, goal WorldState
	p.SetAtom(&start, "x", false)
	p.SetAtom(&goal, "x", true)

	result := p.Plan(start, goal)
	assert.Equal(t, Exhausted, result.Outcome)
	assert.Nil(t, p.StartSearch(start, goal))
}

func TestPlan_PrefersCheaperRoute(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	p.SetEffect("direct", "done", true)
	p.SetCost("direct", 10)
	p.SetEffect("prepare", "ready", true)
	p.SetPrecondition("finish", "ready", true)
	p.SetEffect("finish", "done", true)

	var start, goal WorldState
	p.SetAtom(&start, "ready", false)
	p.SetAtom(&start, "done", false)
	p.SetAtom(&goal, "done", true)

	result := p.Plan(start, goal)
	require.Equal(t, Found, result.Outcome)
	assert.Equal(t, []string{"prepare", "finish"}, result.Actions)
	assert.Equal(t, 2, result.Cost)

	p.SetCost("direct", 1)
	result = p.Plan(start, goal)
	require.Equal(t, Found, result.Outcome)
	assert.Equal(t, []string{"direct"}, result.Actions)
	assert.Equal(t, 1, result.Cost)
}

func TestPlan_CostIsSumOfActions(t *testing.T) {
	t.Parallel()

	p := newScenarioPlanner()
	for _, name := range p.Actions() {
		p.SetCost(name, 3)
	}
	start, goal := scenarioStates(p)

	result := p.Plan(start, goal)
	require.True(t, result.OK())
	assert.Len(t, result.Actions, 4)
	assert.Equal(t, 12, result.Cost)
}

func TestPlan_CapacityExceeded(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	// every subset of twenty independent atoms is reachable, none of which
	// satisfies the goal
	for i := 0; i < 20; i++ {
		p.SetEffect(fmt.Sprintf("set%d", i), fmt.Sprintf("atom%d", i), true)
	}
	var start, goal WorldState
	p.SetAtom(&goal, "unreachable", true)

	result := p.Plan(start, goal)
	assert.Equal(t, CapacityExceeded, result.Outcome)
	assert.Empty(t, result.Actions)
	assert.LessOrEqual(t, result.Expanded, DefaultCapacity+1)
}

func TestPlan_CustomCapacity(t *testing.T) {
	t.Parallel()

	p := NewPlanner(WithCapacity(4))
	for i := 0; i < 8; i++ {
		p.SetEffect(fmt.Sprintf("set%d", i), fmt.Sprintf("atom%d", i), true)
	}
	var start, goal WorldState
	p.SetAtom(&goal, "unreachable", true)

	result := p.Plan(start, goal)
	assert.Equal(t, CapacityExceeded, result.Outcome)
	assert.LessOrEqual(t, result.Expanded, 5)
}

func TestOpenList_Order(t *testing.T) {
	t.Parallel()

	s := newSearch(nil, WorldState{}, 0)
	s.push(&node{state: WorldState{Value: 1}, g: 2, h: 1})
	s.push(&node{state: WorldState{Value: 2}, g: 1, h: 1})
	s.push(&node{state: WorldState{Value: 3}, g: 0, h: 2})
	s.push(&node{state: WorldState{Value: 4}, g: 5, h: 0})

	var order []uint32
	for s.open.Len() > 0 {
		order = append(order, s.pop().state.Value)
	}
	assert.Equal(t, []uint32{2, 3, 1, 4}, order, "ties on f break by insertion order")
}

// newDetourPlanner builds a graph where the cheapest route reaches x through
// a detour, after the direct action has already closed that state.
func newDetourPlanner() *Planner {
	p := NewPlanner()

	p.SetEffect("A", "x", true)
	p.SetCost("A", 2)

	p.SetEffect("B", "y", true)
	p.SetCost("B", 0)

	p.SetPrecondition("D", "y", true)
	p.SetEffect("D", "z", true)
	p.SetEffect("D", "w1", true)
	p.SetEffect("D", "w2", true)
	p.SetCost("D", 0)

	p.SetPrecondition("E", "z", true)
	p.SetEffect("E", "x", true)
	p.SetEffect("E", "y", false)
	p.SetEffect("E", "z", false)
	p.SetEffect("E", "w1", false)
	p.SetEffect("E", "w2", false)
	p.SetCost("E", 1)

	p.SetPrecondition("F", "x", true)
	p.SetEffect("F", "done", true)
	p.SetCost("F", 10)

	return p
}

func TestPlan_ReopensClosedState(t *testing.T) {
	t.Parallel()

	p := newDetourPlanner()
	var start, goal WorldState
	p.SetAtom(&start, "done", false)
	p.SetAtom(&goal, "done", true)

	for range 3 {
		result := p.Plan(start, goal)
		require.Equal(t, Found, result.Outcome)
		assert.Equal(t, []string{"B", "D", "E", "F"}, result.Actions)
		assert.Equal(t, 11, result.Cost)
		assert.Equal(t, 6, result.Expanded)
	}
}

func TestPlan_ReplacesOpenNode(t *testing.T) {
	t.Parallel()

	p := NewPlanner()
	p.SetEffect("slow", "done", true)
	p.SetCost("slow", 5)
	p.SetEffect("prep", "primed", true)
	p.SetPrecondition("fast", "primed", true)
	p.SetEffect("fast", "primed", false)
	p.SetEffect("fast", "done", true)

	var start, goal WorldState
	p.SetAtom(&start, "done", false)
	p.SetAtom(&goal, "done", true)

	// slow and prep+fast reach the same state; the cheaper one must win
	// while the slow node is still open
	result := p.Plan(start, goal)
	require.Equal(t, Found, result.Outcome)
	assert.Equal(t, []string{"prep", "fast"}, result.Actions)
	assert.Equal(t, 2, result.Cost)
	assert.Equal(t, 2, result.Expanded)
}

func TestPlan_IdentityIgnoresCareMask(t *testing.T) {
	t.Parallel()

	// three actions produce the same Value under three different care masks
	p := NewPlanner(WithCapacity(2))
	p.SetEffect("one", "a", true)
	p.SetEffect("two", "a", true)
	p.SetEffect("two", "b", false)
	p.SetEffect("three", "a", true)
	p.SetEffect("three", "c", false)

	var goal WorldState
	p.SetAtom(&goal, "c", true)

	a1, _ := p.Effect("one")
	a2, _ := p.Effect("two")
	require.Equal(t, a1.Value, a2.Value)
	require.NotEqual(t, a1.Care, a2.Care)

	// one open node per Value keeps the open list within capacity
	result := p.Plan(WorldState{}, goal)
	assert.Equal(t, Exhausted, result.Outcome)
	assert.Equal(t, 2, result.Expanded)
}
