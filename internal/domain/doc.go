// Package domain loads GOAP domains from YAML files.
//
// A document lists actions with their preconditions, effects and costs, a
// start state, prioritized goals, and optional sensors deriving atoms from a
// blackboard. Documents are validated against an embedded JSON Schema, then
// compiled into a goap.Planner. Fact mappings keep their document order, so
// atom and action indices follow the file.
package domain
