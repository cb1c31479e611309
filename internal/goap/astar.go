package goap

import (
	"container/heap"
	"slices"
)

// DefaultCapacity bounds both the open and the closed list of a search.
const DefaultCapacity = 1024

// edge is a registered action as seen by a single search.
type edge struct {
	name   string
	pre    WorldState
	effect WorldState
	cost   int
}

// node is an entry of the open or closed list.
//
// parent holds the predecessor's state by value. Path reconstruction finds
// the predecessor by looking up that value in the closed list.
type node struct {
	state  WorldState
	parent WorldState
	action string
	g      int
	h      int
	f      int
	seq    uint64
	index  int
}

// openList is a min-heap of nodes ordered by f, then by insertion order.
type openList []*node

var _ heap.Interface = (*openList)(nil)

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}

func (o openList) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openList) Push(x any) {
	n := x.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openList) Pop() any {
	old := *o
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*o = old[:last]
	return n
}

// search holds the working state of one planning call. Nodes are keyed by
// the raw Value of their state; the care mask takes no part in identity.
type search struct {
	edges    []edge
	goal     WorldState
	capacity int

	open   openList
	opened map[uint32]*node
	closed map[uint32]*node
	seq    uint64
}

func newSearch(edges []edge, goal WorldState, capacity int) *search {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &search{
		edges:    edges,
		goal:     goal,
		capacity: capacity,
		opened:   make(map[uint32]*node),
		closed:   make(map[uint32]*node),
	}
}

func (s *search) push(n *node) {
	n.f = n.g + n.h
	n.seq = s.seq
	s.seq++
	heap.Push(&s.open, n)
	s.opened[n.state.Value] = n
}

func (s *search) pop() *node {
	n := heap.Pop(&s.open).(*node)
	delete(s.opened, n.state.Value)
	return n
}

func (s *search) run(start WorldState) Result {
	s.push(&node{
		state:  start,
		parent: start,
		h:      distance(start, s.goal),
	})

	for {
		if len(s.open) == 0 {
			return Result{Outcome: Exhausted, Expanded: len(s.closed)}
		}

		current := s.pop()

		if distance(current.state, s.goal) == 0 {
			return Result{
				Outcome:  Found,
				Actions:  s.path(current),
				Cost:     current.g,
				Expanded: len(s.closed),
			}
		}

		s.closed[current.state.Value] = current
		if len(s.closed) > s.capacity {
			return Result{Outcome: CapacityExceeded, Expanded: len(s.closed)}
		}

		for _, e := range s.edges {
			if !met(e.pre, current.state) {
				continue
			}
			next := apply(current.state, e.effect)
			g := current.g + e.cost

			if existing, ok := s.opened[next.Value]; ok {
				if existing.g <= g {
					continue
				}
				heap.Remove(&s.open, existing.index)
				delete(s.opened, next.Value)
			}
			if existing, ok := s.closed[next.Value]; ok {
				if existing.g <= g {
					continue
				}
				// a cheaper route reopens the state
				delete(s.closed, next.Value)
			}

			s.push(&node{
				state:  next,
				parent: current.state,
				action: e.name,
				g:      g,
				h:      distance(current.state, next),
			})

			if len(s.open) > s.capacity {
				return Result{Outcome: CapacityExceeded, Expanded: len(s.closed)}
			}
		}
	}
}

// path walks parent states back through the closed list until it reaches a
// node with no producing action, then returns the actions in start-to-goal
// order. The walk is bounded by the closed list size since value-keyed
// parents can form a cycle.
func (s *search) path(n *node) []string {
	var actions []string
	for steps := 0; n.action != "" && steps <= len(s.closed); steps++ {
		actions = append(actions, n.action)
		parent, ok := s.closed[n.parent.Value]
		if !ok {
			break
		}
		n = parent
	}
	slices.Reverse(actions)
	return actions
}
