package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxStageQueries caps concurrent per-stage sum queries.
const maxStageQueries = 4

// StageOutput is a stage's production over a time window.
type StageOutput struct {
	StageOrder               int       `json:"stageOrder"`
	StageName                string    `json:"stageName"`
	UnitsProduced            int       `json:"unitsProduced"`
	DefectiveUnits           int       `json:"defectiveUnits"`
	EffectiveYieldPercentage float64   `json:"effectiveYieldPercentage"`
	StartTime                time.Time `json:"startTime"`
	EndTime                  time.Time `json:"endTime"`
}

// NetUnits is units produced minus defective units.
func (o StageOutput) NetUnits() int {
	return o.UnitsProduced - o.DefectiveUnits
}

// Aggregator sums metric records into stage-level output.
type Aggregator struct {
	dir     Directory
	metrics MetricsStore
}

// NewAggregator creates an Aggregator.
func NewAggregator(dir Directory, metrics MetricsStore) *Aggregator {
	return &Aggregator{dir: dir, metrics: metrics}
}

// StageOutput sums units and defects of the stage with the given sequence order
// over [start, end]. An empty window is not an error.
func (a *Aggregator) StageOutput(ctx context.Context, stageOrder int, start, end time.Time) (StageOutput, error) {
	if err := validateWindow(start, end); err != nil {
		return StageOutput{}, err
	}

	stage, ok, err := a.dir.StageBySequenceOrder(ctx, stageOrder)
	if err != nil {
		return StageOutput{}, fmt.Errorf("failed to resolve stage %d: %w", stageOrder, err)
	}
	if !ok {
		return StageOutput{}, fmt.Errorf("%w: stage with sequence order %d", ErrNotFound, stageOrder)
	}

	units, err := a.metrics.SumUnits(ctx, stageOrder, start, end)
	if err != nil {
		return StageOutput{}, fmt.Errorf("failed to sum units for stage %d: %w", stageOrder, err)
	}
	defects, err := a.metrics.SumDefects(ctx, stageOrder, start, end)
	if err != nil {
		return StageOutput{}, fmt.Errorf("failed to sum defects for stage %d: %w", stageOrder, err)
	}

	out := StageOutput{
		StageOrder:     stageOrder,
		StageName:      stage.Name,
		UnitsProduced:  int(valueOrZero(units)),
		DefectiveUnits: int(valueOrZero(defects)),
		StartTime:      start,
		EndTime:        end,
	}
	out.EffectiveYieldPercentage = Yield(out.UnitsProduced, out.DefectiveUnits)
	return out, nil
}

// AllStagesOutput computes StageOutput for every stage in ascending sequence
// order. Stages that no longer resolve are left out.
func (a *Aggregator) AllStagesOutput(ctx context.Context, start, end time.Time) ([]StageOutput, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	stages, err := a.dir.AllStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	results := make([]*StageOutput, len(stages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStageQueries)
	for i, stage := range stages {
		g.Go(func() error {
			out, err := a.StageOutput(gctx, stage.SequenceOrder, start, end)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outputs := make([]StageOutput, 0, len(results))
	for _, r := range results {
		if r != nil {
			outputs = append(outputs, *r)
		}
	}
	return outputs, nil
}

// ZeroOutputs lists every stage with zero production over [start, end]. It is
// what a window that has not begun yet looks like.
func (a *Aggregator) ZeroOutputs(ctx context.Context, start, end time.Time) ([]StageOutput, error) {
	stages, err := a.dir.AllStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	outputs := make([]StageOutput, 0, len(stages))
	for _, s := range stages {
		outputs = append(outputs, StageOutput{
			StageOrder: s.SequenceOrder,
			StageName:  s.Name,
			StartTime:  start,
			EndTime:    end,
		})
	}
	return outputs, nil
}

// Yield is the percentage of non-defective units, or 0 when nothing was produced.
func Yield(units, defects int) float64 {
	if units <= 0 {
		return 0
	}
	return 100.0 * float64(units-defects) / float64(units)
}

func validateWindow(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidInput, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return nil
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
