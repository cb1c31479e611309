package goap

// Outcome classifies how a planning call terminated.
type Outcome int

const (
	// Found means a goal-satisfying state was reached; Result.Actions holds
	// the plan, which is empty when the start state already satisfies the
	// goal.
	Found Outcome = iota
	// Exhausted means the open list ran dry without reaching the goal.
	Exhausted
	// CapacityExceeded means the open or closed list outgrew the configured
	// capacity before the goal was reached.
	CapacityExceeded
)

var outcomeNames = map[Outcome]string{
	Found:            "found",
	Exhausted:        "exhausted",
	CapacityExceeded: "capacity-exceeded",
}

// String returns the outcome name used in logs and the journal.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	for o, name := range outcomeNames {
		if name == s {
			return o, true
		}
	}
	return 0, false
}

// Result is the full report of a planning call.
type Result struct {
	Outcome Outcome
	// Actions is the ordered plan, start to goal. Empty unless Outcome is
	// Found.
	Actions []string
	// Cost is the summed cost of Actions.
	Cost int
	// Expanded is the number of nodes moved to the closed list.
	Expanded int
}

// OK reports whether a plan was found.
func (r Result) OK() bool {
	return r.Outcome == Found
}
