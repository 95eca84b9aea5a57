// pkg/pipeline/state_test.go
package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateMachineAdvancesInOrder(t *testing.T) {
	m := NewStateMachine()
	require.Equal(t, StatePending, m.Current())

	for _, next := range []State{
		StateExtracted, StateMerged, StateCleaned, StateTyped, StateModeled, StateAggregated,
	} {
		require.NoError(t, m.Advance(next))
		require.Equal(t, next, m.Current())
	}
}

func TestStateMachineRejectsSkips(t *testing.T) {
	m := NewStateMachine()

	err := m.Advance(StateMerged)
	require.Error(t, err)
	require.Equal(t, StatePending, m.Current())
}

func TestStateMachineRejectsBackwardMoves(t *testing.T) {
	m := NewStateMachine()
	require.NoError(t, m.Advance(StateExtracted))
	require.NoError(t, m.Advance(StateMerged))

	err := m.Advance(StateExtracted)
	require.Error(t, err)
	require.Equal(t, StateMerged, m.Current())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Pending", StatePending.String())
	require.Equal(t, "Aggregated", StateAggregated.String())
	require.Contains(t, State(99).String(), "Unknown")
}

func TestStageErrorCategorization(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{"cancelled", context.Canceled, CategoryCancelled},
		{"deadline", context.DeadlineExceeded, CategoryCancelled},
		{"schema", errors.New(`table merged: required column "price" is missing`), CategorySchemaMismatch},
		{"connection", errors.New("dial tcp 10.0.0.1:3306: connect: connection refused"), CategoryConnection},
		{"quality", errors.New("verification failed for star schema: dangling keys"), CategoryDataQuality},
		{"system", errors.New("something unexpected"), CategorySystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := NewStageError("model", tt.err)
			require.Equal(t, tt.category, se.Category)
			require.Equal(t, "model", se.Stage)
			require.ErrorIs(t, se, tt.err)
			require.Contains(t, se.Error(), "model")
		})
	}
}
