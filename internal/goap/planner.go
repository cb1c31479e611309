package goap

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Planner is a registry of atoms and actions plus the A* search over the
// graph they induce.
//
// Atoms and actions are assigned stable indices in registration order, at
// most MaxAtoms of each, and are never removed. Registration and planning are
// safe for concurrent use; every Plan call works on its own search state.
type Planner struct {
	mu sync.RWMutex

	atoms     map[string]int
	atomNames []string

	actions     map[string]int
	actionNames []string
	pre         []WorldState
	effect      []WorldState
	cost        []int

	capacity int
	logger   *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithCapacity overrides the open/closed list bound (DefaultCapacity).
// Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithLogger sets the logger used for planning diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPlanner creates an empty Planner.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		atoms:    make(map[string]int),
		actions:  make(map[string]int),
		capacity: DefaultCapacity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capacity returns the open/closed list bound used by Plan.
func (p *Planner) Capacity() int {
	return p.capacity
}

// AtomIndex returns the index of the named atom, registering it if needed.
// It returns -1 when the registry is full or the name is empty.
func (p *Planner) AtomIndex(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.atomIndexLocked(name)
}

func (p *Planner) atomIndexLocked(name string) int {
	if i, ok := p.atoms[name]; ok {
		return i
	}
	if name == "" || len(p.atomNames) >= MaxAtoms {
		return -1
	}
	i := len(p.atomNames)
	p.atoms[name] = i
	p.atomNames = append(p.atomNames, name)
	return i
}

// ActionIndex returns the index of the named action, registering it with an
// empty precondition, an empty effect and a cost of 1 if needed. It returns
// -1 when the registry is full or the name is empty.
func (p *Planner) ActionIndex(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actionIndexLocked(name)
}

func (p *Planner) actionIndexLocked(name string) int {
	if i, ok := p.actions[name]; ok {
		return i
	}
	if name == "" || len(p.actionNames) >= MaxAtoms {
		return -1
	}
	i := len(p.actionNames)
	p.actions[name] = i
	p.actionNames = append(p.actionNames, name)
	p.pre = append(p.pre, WorldState{})
	p.effect = append(p.effect, WorldState{})
	p.cost = append(p.cost, 1)
	return i
}

// registrableLocked reports whether both names are registered or can be.
func (p *Planner) registrableLocked(action, atom string) bool {
	if _, ok := p.actions[action]; !ok && (action == "" || len(p.actionNames) >= MaxAtoms) {
		return false
	}
	if _, ok := p.atoms[atom]; !ok && (atom == "" || len(p.atomNames) >= MaxAtoms) {
		return false
	}
	return true
}

// LookupAtom returns the index of an already registered atom.
func (p *Planner) LookupAtom(name string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.atoms[name]
	return i, ok
}

// LookupAction returns the index of an already registered action.
func (p *Planner) LookupAction(name string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.actions[name]
	return i, ok
}

// SetPrecondition requires atom to equal value before action may run. Both
// names are registered on first use. It returns false, changing nothing,
// when either registry is full.
func (p *Planner) SetPrecondition(action, atom string, value bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.registrableLocked(action, atom) {
		return false
	}
	act, at := p.actionIndexLocked(action), p.atomIndexLocked(atom)
	return p.pre[act].Set(at, value)
}

// SetEffect makes action set atom to value. Both names are registered on
// first use. It returns false, changing nothing, when either registry is
// full.
func (p *Planner) SetEffect(action, atom string, value bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.registrableLocked(action, atom) {
		return false
	}
	act, at := p.actionIndexLocked(action), p.atomIndexLocked(atom)
	return p.effect[act].Set(at, value)
}

// SetCost overwrites the cost of a registered action. Unknown actions and
// negative costs are ignored.
func (p *Planner) SetCost(action string, cost int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.actions[action]
	if !ok {
		return
	}
	if cost < 0 {
		p.logger.Warn("[goap] ignoring negative action cost", "action", action, "cost", cost)
		return
	}
	p.cost[i] = cost
}

// SetAtom assigns the named atom in ws, registering the atom if needed. It
// returns false, leaving ws untouched, when the atom registry is full.
func (p *Planner) SetAtom(ws *WorldState, atom string, value bool) bool {
	i := p.AtomIndex(atom)
	if i == -1 {
		return false
	}
	return ws.Set(i, value)
}

// Atoms returns the registered atom names in index order.
func (p *Planner) Atoms() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.atomNames...)
}

// Actions returns the registered action names in index order.
func (p *Planner) Actions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.actionNames...)
}

// Precondition returns the precondition state of a registered action.
func (p *Planner) Precondition(action string) (WorldState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.actions[action]
	if !ok {
		return WorldState{}, false
	}
	return p.pre[i], true
}

// Effect returns the effect state of a registered action.
func (p *Planner) Effect(action string) (WorldState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.actions[action]
	if !ok {
		return WorldState{}, false
	}
	return p.effect[i], true
}

// Cost returns the cost of a registered action.
func (p *Planner) Cost(action string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.actions[action]
	if !ok {
		return 0, false
	}
	return p.cost[i], true
}

// Format renders the cared-about atoms of ws by name, in index order, e.g.
// "armedwithgun enemyalive !enemyvisible". Bits without a registered atom
// are rendered as "#index".
func (p *Planner) Format(ws WorldState) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var parts []string
	for i := 0; i < MaxAtoms; i++ {
		v, ok := ws.Get(i)
		if !ok {
			continue
		}
		name := "#" + strconv.Itoa(i)
		if i < len(p.atomNames) {
			name = p.atomNames[i]
		}
		if !v {
			name = "!" + name
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}

// StartSearch returns the cheapest action sequence found from start to a
// state satisfying goal. An empty result means no plan: the goal was either
// unreachable or the search exceeded its capacity. Callers that need to tell
// those apart use Plan.
func (p *Planner) StartSearch(start, goal WorldState) []string {
	return p.Plan(start, goal).Actions
}

// Plan runs the A* search from start toward goal. The inputs are copied and
// never modified.
func (p *Planner) Plan(start, goal WorldState) Result {
	start, goal = start.Clone(), goal.Clone()

	p.mu.RLock()
	edges := make([]edge, len(p.actionNames))
	for i, name := range p.actionNames {
		edges[i] = edge{name: name, pre: p.pre[i], effect: p.effect[i], cost: p.cost[i]}
	}
	capacity := p.capacity
	p.mu.RUnlock()

	result := newSearch(edges, goal, capacity).run(start)

	p.logger.Debug("[goap] search finished",
		"outcome", result.Outcome.String(),
		"actions", result.Actions,
		"cost", result.Cost,
		"expanded", result.Expanded,
	)
	return result
}
