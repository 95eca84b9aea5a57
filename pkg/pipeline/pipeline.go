// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/aggregate"
	"github.com/ecomdw/warehouse-pipeline/pkg/artifact"
	"github.com/ecomdw/warehouse-pipeline/pkg/cleaner"
	"github.com/ecomdw/warehouse-pipeline/pkg/config"
	"github.com/ecomdw/warehouse-pipeline/pkg/connector"
	"github.com/ecomdw/warehouse-pipeline/pkg/converter"
	"github.com/ecomdw/warehouse-pipeline/pkg/extract"
	"github.com/ecomdw/warehouse-pipeline/pkg/loader"
	"github.com/ecomdw/warehouse-pipeline/pkg/merger"
	"github.com/ecomdw/warehouse-pipeline/pkg/model"
	"github.com/ecomdw/warehouse-pipeline/pkg/star"
)

// Result holds everything a run produced, for callers that want to inspect
// the output beyond what was written to the warehouse.
type Result struct {
	RunID      string
	Schema     *star.StarSchema
	Aggregates *aggregate.Aggregates
	FillReport *model.FillReport
	Operations []model.CleaningOperation
	Metrics    *RunMetrics
}

// Pipeline orchestrates a full run: extract, merge, clean, type, model,
// verify, aggregate, load. Stages run strictly in order; the first failure
// aborts the run and nothing is written to the warehouse.
type Pipeline struct {
	cfg       *config.Config
	logger    *zap.Logger
	converter *converter.TypeConverter
	merger    *merger.Merger
	cleaner   *cleaner.DataCleaner
	modeler   *star.Modeler
	verifier  *Verifier
	agg       *aggregate.Aggregator
	artifacts *artifact.Writer
}

// NewPipeline builds a pipeline from the config. Connectors are not opened
// here; Run acquires them and releases them when it returns.
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	tc := converter.NewTypeConverter(logger)

	m, err := merger.NewMerger(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create merger: %w", err)
	}

	dc, err := cleaner.NewDataCleaner(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cleaner: %w", err)
	}

	modeler, err := star.NewModeler(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create modeler: %w", err)
	}

	agg, err := aggregate.NewAggregator(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator: %w", err)
	}

	artifacts, err := artifact.NewWriter(cfg.ArtifactDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact writer: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
		converter: tc,
		merger:    m,
		cleaner:   dc,
		modeler:   modeler,
		verifier:  NewVerifier(logger),
		agg:       agg,
		artifacts: artifacts,
	}, nil
}

// Run executes one full pipeline run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	logger := p.logger.With(zap.String("runID", runID))
	metrics := NewRunMetrics(runID, logger)
	machine := NewStateMachine()

	logger.Info("Starting pipeline run",
		zap.String("warehouse", string(p.cfg.Warehouse)),
		zap.String("schema", p.cfg.WarehouseSchema))

	factory := connector.NewConnectorFactory(p.cfg, logger)
	source, warehouse, err := factory.CreateAllConnectors(ctx)
	if err != nil {
		return nil, p.fail(metrics, "connect", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("Failed to close source connection", zap.Error(err))
		}
		if err := warehouse.Close(); err != nil {
			logger.Warn("Failed to close warehouse connection", zap.Error(err))
		}
	}()

	// Extract
	metrics.StartStage("extract", 0)
	extractor, err := extract.NewExtractor(source, p.converter, logger)
	if err != nil {
		return nil, p.fail(metrics, "extract", err)
	}
	raw, err := extractor.ExtractAll(ctx)
	if err != nil {
		return nil, p.fail(metrics, "extract", err)
	}
	rawRows := 0
	for _, t := range raw.Tables() {
		rawRows += t.NumRows()
	}
	metrics.EndStage("extract", rawRows, len(raw.Tables()), true)
	if err := machine.Advance(StateExtracted); err != nil {
		return nil, p.fail(metrics, "extract", err)
	}

	// Merge
	metrics.StartStage("merge", rawRows)
	merged, err := p.merger.Merge(raw)
	if err != nil {
		return nil, p.fail(metrics, "merge", err)
	}
	if path, err := p.artifacts.WriteTable(merged); err != nil {
		logger.Warn("Failed to write merged snapshot", zap.Error(err))
	} else {
		logger.Info("Wrote merged snapshot", zap.String("path", path))
	}
	metrics.EndStage("merge", merged.NumRows(), 1, true)
	if err := machine.Advance(StateMerged); err != nil {
		return nil, p.fail(metrics, "merge", err)
	}

	// Clean
	metrics.StartStage("clean", merged.NumRows())
	cleaned, operations, fillReport, err := p.cleaner.Clean(merged)
	if err != nil {
		return nil, p.fail(metrics, "clean", err)
	}
	metrics.RecordCleaningOps(len(operations))
	metrics.EndStage("clean", cleaned.NumRows(), 1, true)
	if err := machine.Advance(StateCleaned); err != nil {
		return nil, p.fail(metrics, "clean", err)
	}

	// Type
	metrics.StartStage("type", cleaned.NumRows())
	typed, err := p.converter.Normalize(cleaned, converter.FinalTypeMapping())
	if err != nil {
		return nil, p.fail(metrics, "type", err)
	}
	if err := p.verifier.VerifyCleaned(typed); err != nil {
		return nil, p.fail(metrics, "type", err)
	}
	metrics.EndStage("type", typed.NumRows(), 1, true)
	if err := machine.Advance(StateTyped); err != nil {
		return nil, p.fail(metrics, "type", err)
	}

	// Model
	metrics.StartStage("model", typed.NumRows())
	schema, err := p.modeler.Generate(typed)
	if err != nil {
		return nil, p.fail(metrics, "model", err)
	}
	if err := p.verifier.VerifyStarSchema(typed, schema); err != nil {
		return nil, p.fail(metrics, "model", err)
	}
	modelRows := 0
	for _, t := range schema.Tables() {
		modelRows += t.NumRows()
	}
	metrics.EndStage("model", modelRows, len(schema.Tables()), true)
	if err := machine.Advance(StateModeled); err != nil {
		return nil, p.fail(metrics, "model", err)
	}

	// Aggregate
	metrics.StartStage("aggregate", schema.FactOrders.NumRows())
	aggs, err := p.agg.Build(schema)
	if err != nil {
		return nil, p.fail(metrics, "aggregate", err)
	}
	aggRows := 0
	for _, t := range aggs.Tables() {
		aggRows += t.NumRows()
	}
	metrics.EndStage("aggregate", aggRows, len(aggs.Tables()), true)
	if err := machine.Advance(StateAggregated); err != nil {
		return nil, p.fail(metrics, "aggregate", err)
	}

	// Load
	loadRows := modelRows + aggRows + len(operations)
	metrics.StartStage("load", loadRows)
	ldr, err := loader.NewLoader(warehouse, p.cfg, logger)
	if err != nil {
		return nil, p.fail(metrics, "load", err)
	}
	if err := ldr.LoadAll(ctx, schema, aggs, operations); err != nil {
		return nil, p.fail(metrics, "load", err)
	}
	metrics.RecordRowsLoaded(int64(loadRows))
	metrics.EndStage("load", loadRows, len(schema.Tables())+len(aggs.Tables())+1, true)

	metrics.Complete()

	return &Result{
		RunID:      runID,
		Schema:     schema,
		Aggregates: aggs,
		FillReport: fillReport,
		Operations: operations,
		Metrics:    metrics,
	}, nil
}

// fail records the failure in metrics and wraps the error with its stage.
func (p *Pipeline) fail(metrics *RunMetrics, stage string, err error) error {
	stageErr := NewStageError(stage, err)
	metrics.RecordError(stageErr.Category)
	metrics.EndStage(stage, 0, 0, false)
	p.logger.Error("Pipeline stage failed",
		zap.String("runID", metrics.RunID),
		zap.String("stage", stage),
		zap.String("category", string(stageErr.Category)),
		zap.Error(err))
	return stageErr
}
