// pkg/pipeline/metrics.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageMetrics tracks metrics for a single pipeline stage
type StageMetrics struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
	RowsIn    int
	RowsOut   int
	Tables    int
	Succeeded bool
}

// Duration returns the stage duration, live if the stage is still running
func (sm *StageMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// RunMetrics tracks metrics for a whole pipeline run
type RunMetrics struct {
	mu          sync.Mutex
	logger      *zap.Logger
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	Stages      map[string]*StageMetrics
	stageOrder  []string
	CleaningOps int
	RowsLoaded  int64
	ErrorCounts map[ErrorCategory]int
}

// NewRunMetrics creates a metrics tracker for one run
func NewRunMetrics(runID string, logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:      logger,
		RunID:       runID,
		StartTime:   time.Now(),
		Stages:      make(map[string]*StageMetrics),
		stageOrder:  make([]string, 0),
		ErrorCounts: make(map[ErrorCategory]int),
	}
}

// StartStage begins tracking a stage
func (rm *RunMetrics) StartStage(stage string, rowsIn int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm := &StageMetrics{
		Stage:     stage,
		StartTime: time.Now(),
		RowsIn:    rowsIn,
	}
	rm.Stages[stage] = sm
	rm.stageOrder = append(rm.stageOrder, stage)

	if rm.logger != nil {
		rm.logger.Info("Started stage",
			zap.String("runID", rm.RunID),
			zap.String("stage", stage),
			zap.Int("rowsIn", rowsIn))
	}
}

// EndStage completes tracking a stage
func (rm *RunMetrics) EndStage(stage string, rowsOut, tables int, succeeded bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm, ok := rm.Stages[stage]
	if !ok {
		return
	}
	sm.EndTime = time.Now()
	sm.RowsOut = rowsOut
	sm.Tables = tables
	sm.Succeeded = succeeded

	if rm.logger != nil {
		rm.logger.Info("Completed stage",
			zap.String("runID", rm.RunID),
			zap.String("stage", stage),
			zap.Duration("duration", sm.Duration()),
			zap.Int("rowsOut", rowsOut),
			zap.Int("tables", tables),
			zap.Bool("succeeded", succeeded))
	}
}

// RecordError increments the count for an error category
func (rm *RunMetrics) RecordError(category ErrorCategory) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.ErrorCounts[category]++
}

// RecordCleaningOps records the number of cleaning operations applied
func (rm *RunMetrics) RecordCleaningOps(n int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.CleaningOps = n
}

// RecordRowsLoaded adds to the count of rows written to the warehouse
func (rm *RunMetrics) RecordRowsLoaded(n int64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.RowsLoaded += n
}

// Duration returns the total run duration
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// Complete marks the run as finished and logs a summary
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.EndTime = time.Now()

	if rm.logger != nil {
		rm.logger.Info("Pipeline run completed",
			zap.String("runID", rm.RunID),
			zap.Duration("totalDuration", rm.EndTime.Sub(rm.StartTime)),
			zap.Int("stages", len(rm.Stages)),
			zap.Int("cleaningOps", rm.CleaningOps),
			zap.Int64("rowsLoaded", rm.RowsLoaded))
	}
}

// GenerateReport creates a human-readable run report
func (rm *RunMetrics) GenerateReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	report := fmt.Sprintf(`
Pipeline Run Report
===================
Run ID:       %s
Duration:     %s
Start Time:   %s
Cleaning Ops: %d
Rows Loaded:  %d

Stage Details
-------------
`,
		rm.RunID,
		formatDuration(rm.Duration()),
		rm.StartTime.Format(time.RFC3339),
		rm.CleaningOps,
		rm.RowsLoaded,
	)

	for _, stage := range rm.stageOrder {
		sm := rm.Stages[stage]
		status := "ok"
		if !sm.Succeeded {
			status = "failed"
		}
		report += fmt.Sprintf("- %-10s %s rows %d -> %d (%d tables) [%s]\n",
			sm.Stage,
			formatDuration(sm.Duration()),
			sm.RowsIn,
			sm.RowsOut,
			sm.Tables,
			status)
	}

	if len(rm.ErrorCounts) > 0 {
		report += "\nErrors by Category\n------------------\n"
		for category, count := range rm.ErrorCounts {
			report += fmt.Sprintf("- %s: %d\n", category, count)
		}
	}

	return report
}

// ToJSON serializes the run metrics
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	stages := make([]struct {
		Stage    string `json:"stage"`
		Duration string `json:"duration"`
		RowsIn   int    `json:"rowsIn"`
		RowsOut  int    `json:"rowsOut"`
		Tables   int    `json:"tables"`
	}, 0, len(rm.stageOrder))
	for _, stage := range rm.stageOrder {
		sm := rm.Stages[stage]
		stages = append(stages, struct {
			Stage    string `json:"stage"`
			Duration string `json:"duration"`
			RowsIn   int    `json:"rowsIn"`
			RowsOut  int    `json:"rowsOut"`
			Tables   int    `json:"tables"`
		}{sm.Stage, formatDuration(sm.Duration()), sm.RowsIn, sm.RowsOut, sm.Tables})
	}

	return json.Marshal(struct {
		RunID       string                `json:"runId"`
		Duration    string                `json:"duration"`
		CleaningOps int                   `json:"cleaningOps"`
		RowsLoaded  int64                 `json:"rowsLoaded"`
		Stages      interface{}           `json:"stages"`
		ErrorCounts map[ErrorCategory]int `json:"errorCounts"`
	}{
		RunID:       rm.RunID,
		Duration:    formatDuration(rm.Duration()),
		CleaningOps: rm.CleaningOps,
		RowsLoaded:  rm.RowsLoaded,
		Stages:      stages,
		ErrorCounts: rm.ErrorCounts,
	})
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
