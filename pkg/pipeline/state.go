// pkg/pipeline/state.go
package pipeline

import (
	"fmt"
	"sync"
)

// State is the pipeline's progress through its stages. Transitions are
// single-direction and strictly ordered; any caller (batch job, interactive
// tool, test) can drive the machine without a UI.
type State int

const (
	StatePending State = iota
	StateExtracted
	StateMerged
	StateCleaned
	StateTyped
	StateModeled
	StateAggregated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateExtracted:
		return "Extracted"
	case StateMerged:
		return "Merged"
	case StateCleaned:
		return "Cleaned"
	case StateTyped:
		return "Typed"
	case StateModeled:
		return "Modeled"
	case StateAggregated:
		return "Aggregated"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// StateMachine enforces the single-direction stage order. A failed stage
// leaves the machine where it was; the unit of restart is a whole run.
type StateMachine struct {
	mu      sync.Mutex
	current State
}

// NewStateMachine creates a machine in the Pending state.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: StatePending}
}

// Current returns the machine's state.
func (m *StateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves to the next state. Skipping a state or moving backwards is
// an error.
func (m *StateMachine) Advance(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next != m.current+1 {
		return fmt.Errorf("invalid transition %s -> %s", m.current, next)
	}
	m.current = next
	return nil
}
