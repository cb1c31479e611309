package goap

import (
	"fmt"
	"math/bits"
)

// MaxAtoms is the number of distinct atoms (and, separately, actions) a
// Planner can register. Bit 31 is never used.
const MaxAtoms = 31

// atomMask covers the usable bits of a WorldState.
const atomMask uint32 = 1<<MaxAtoms - 1

// WorldState is a bit-packed partial assignment of atoms to boolean values.
//
// Bit i of Value holds the value of atom i, and is only meaningful where bit i
// of Care is set. The zero value cares about nothing, so it satisfies every
// precondition and is satisfied by every state.
type WorldState struct {
	Value uint32
	Care  uint32
}

// Clone returns a copy of the state.
func (ws WorldState) Clone() WorldState {
	return WorldState{Value: ws.Value & atomMask, Care: ws.Care & atomMask}
}

// Cares reports whether atom i is assigned in this state.
func (ws WorldState) Cares(i int) bool {
	if i < 0 || i >= MaxAtoms {
		return false
	}
	return ws.Care&(1<<uint(i)) != 0
}

// Get returns the value of atom i and whether the state cares about it.
func (ws WorldState) Get(i int) (value, ok bool) {
	if !ws.Cares(i) {
		return false, false
	}
	return ws.Value&(1<<uint(i)) != 0, true
}

// Set assigns atom i and marks it as cared-about. Out of range indices are
// ignored and reported as false.
func (ws *WorldState) Set(i int, value bool) bool {
	if i < 0 || i >= MaxAtoms {
		return false
	}
	bit := uint32(1) << uint(i)
	if value {
		ws.Value |= bit
	} else {
		ws.Value &^= bit
	}
	ws.Care |= bit
	return true
}

// Satisfies reports whether every atom target cares about has the same value
// in ws. Atoms ws does not care about still compare by their raw bits.
func (ws WorldState) Satisfies(target WorldState) bool {
	return distance(ws, target) == 0
}

// String renders the state as value/care bit patterns.
func (ws WorldState) String() string {
	return fmt.Sprintf("{value:%031b care:%031b}", ws.Value&atomMask, ws.Care&atomMask)
}

// distance counts the bits that differ between from and to, restricted to the
// bits to cares about. It is both the search heuristic and, at zero, the goal
// test.
func distance(from, to WorldState) int {
	care := to.Care & atomMask
	return bits.OnesCount32((from.Value & care) ^ (to.Value & care))
}

// met reports whether state matches every cared-about bit of pre.
func met(pre, state WorldState) bool {
	care := pre.Care & atomMask
	return care&pre.Value == care&state.Value
}

// apply returns the state produced by applying effect to state. Value takes
// the effect's bits where the effect cares and keeps the state's bits
// elsewhere. Care becomes exactly the effect's care mask, so facts the
// effect does not touch stop being cared-about.
func apply(state, effect WorldState) WorldState {
	care := effect.Care & atomMask
	return WorldState{
		Value: (state.Value &^ care) | (effect.Value & care),
		Care:  care,
	}
}
