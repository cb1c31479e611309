// Package sensor derives world states from a blackboard snapshot.
//
// Each sensor binds one atom to a boolean expr-lang expression. The
// expression sees the snapshot's keys as variables, so a blackboard holding
// {"distance": 4} satisfies the sensor "distance < 10". Atoms without a sensor
// read the snapshot key of the same name, when it holds a bool.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/goap/internal/goap"
)

var (
	// ErrEmptyExpression is returned for a sensor without an expression.
	ErrEmptyExpression = errors.New("sensor: empty expression")
	// ErrNotBoolean is returned when an expression yields a non-bool.
	ErrNotBoolean = errors.New("sensor: expression did not evaluate to a bool")
)

// programs is shared by every Set that was not given its own cache.
var programs = NewCache(DefaultCacheSize)

// Sensor binds an atom to an expression.
type Sensor struct {
	Atom       string
	Expression string
}

// Set is an ordered collection of compiled sensors. The zero value and nil
// are valid and have no sensors.
type Set struct {
	sensors  []Sensor
	programs map[string]*vm.Program
	cache    *Cache
}

// Option configures a Set.
type Option func(*Set)

// WithCache uses c instead of the package-wide program cache.
func WithCache(c *Cache) Option {
	return func(s *Set) {
		if c != nil {
			s.cache = c
		}
	}
}

// New compiles sensors. Later sensors for the same atom replace earlier ones.
func New(sensors []Sensor, opts ...Option) (*Set, error) {
	s := &Set{
		programs: make(map[string]*vm.Program, len(sensors)),
		cache:    programs,
	}
	for _, opt := range opts {
		opt(s)
	}
	position := make(map[string]int, len(sensors))
	for _, sn := range sensors {
		program, err := s.compile(sn.Expression)
		if err != nil {
			return nil, fmt.Errorf("sensor %q: %w", sn.Atom, err)
		}
		if i, ok := position[sn.Atom]; ok {
			s.sensors[i] = sn
		} else {
			position[sn.Atom] = len(s.sensors)
			s.sensors = append(s.sensors, sn)
		}
		s.programs[sn.Atom] = program
	}
	return s, nil
}

func (s *Set) compile(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	if program, ok := s.cache.Get(expression); ok {
		return program, nil
	}
	program, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	s.cache.Put(expression, program)
	return program, nil
}

// Sensors returns the sensors in declaration order.
func (s *Set) Sensors() []Sensor {
	if s == nil {
		return nil
	}
	return append([]Sensor(nil), s.sensors...)
}

// Evaluate runs the sensor for atom against snapshot. The second result is
// false when atom has no sensor.
func (s *Set) Evaluate(atom string, snapshot map[string]any) (value, ok bool, err error) {
	if s == nil {
		return false, false, nil
	}
	program, ok := s.programs[atom]
	if !ok {
		return false, false, nil
	}
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	out, err := expr.Run(program, snapshot)
	if err != nil {
		return false, true, fmt.Errorf("sensor %q: %w", atom, err)
	}
	b, isBool := out.(bool)
	if !isBool {
		return false, true, fmt.Errorf("sensor %q: %w (got %T)", atom, ErrNotBoolean, out)
	}
	return b, true, nil
}

// Sense builds the world state of every atom registered with planner. Atoms
// with a sensor take its result; the rest take a bool from the snapshot key of
// the same name, or stay don't-care.
func (s *Set) Sense(planner *goap.Planner, snapshot map[string]any) (goap.WorldState, error) {
	var ws goap.WorldState
	for i, atom := range planner.Atoms() {
		value, ok, err := s.Evaluate(atom, snapshot)
		if err != nil {
			return goap.WorldState{}, err
		}
		if !ok {
			value, ok = snapshot[atom].(bool)
		}
		if ok {
			ws.Set(i, value)
		}
	}
	slog.Debug("[sensor] sensed", "state", planner.Format(ws))
	return ws, nil
}
