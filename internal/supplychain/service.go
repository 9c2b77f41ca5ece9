package supplychain

import (
	"context"
	"fmt"
	"math"
	"time"

	"factory-status-backend/internal/factory"
	"factory-status-backend/internal/model"
	"factory-status-backend/internal/parse"
)

// TargetStore persists daily targets keyed by YYYY-MM-DD.
type TargetStore interface {
	GetTarget(ctx context.Context, date string) (model.DailyTarget, bool, error)
	UpsertTarget(ctx context.Context, date string, units int) (model.DailyTarget, error)
}

// OutputSource provides per-stage output over a window.
type OutputSource interface {
	AllStagesOutput(ctx context.Context, start, end time.Time) ([]factory.StageOutput, error)
	ZeroOutputs(ctx context.Context, start, end time.Time) ([]factory.StageOutput, error)
}

// Status is a point-in-time evaluation of a day's production against its target.
type Status struct {
	Date                       string                `json:"date"`
	DailyTarget                int                   `json:"dailyTarget"`
	CurrentOutput              int                   `json:"currentOutput"`
	ProjectedEndOfDayOutput    int                   `json:"projectedEndOfDayOutput"`
	TargetCompletionPercentage float64               `json:"targetCompletionPercentage"`
	OnTrack                    bool                  `json:"onTrack"`
	StageOutputs               []factory.StageOutput `json:"stageOutputs"`
}

// Service manages daily targets and projects supply-chain status.
type Service struct {
	targets TargetStore
	outputs OutputSource
	shift   factory.Shift
	now     func() time.Time
}

// NewService creates a Service. now is injectable for tests; nil means time.Now.
func NewService(targets TargetStore, outputs OutputSource, shift factory.Shift, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{targets: targets, outputs: outputs, shift: shift, now: now}
}

// Today is the current calendar date in the shift's location.
func (s *Service) Today() time.Time {
	return parse.Day(s.now(), s.shift.Location)
}

// DailyTarget returns the target for date, or a zero target when none is set.
func (s *Service) DailyTarget(ctx context.Context, date time.Time) (model.DailyTarget, error) {
	key := parse.FormatDate(parse.Day(date, s.shift.Location))
	target, ok, err := s.targets.GetTarget(ctx, key)
	if err != nil {
		return model.DailyTarget{}, fmt.Errorf("failed to load target for %s: %w", key, err)
	}
	if !ok {
		return model.DailyTarget{Date: key}, nil
	}
	return target, nil
}

// SetDailyTarget creates or replaces the target for date.
func (s *Service) SetDailyTarget(ctx context.Context, date time.Time, units int) (model.DailyTarget, error) {
	if units < 0 {
		return model.DailyTarget{}, fmt.Errorf("%w: target units %d is negative", factory.ErrInvalidInput, units)
	}
	key := parse.FormatDate(parse.Day(date, s.shift.Location))
	target, err := s.targets.UpsertTarget(ctx, key, units)
	if err != nil {
		return model.DailyTarget{}, fmt.Errorf("failed to save target for %s: %w", key, err)
	}
	return target, nil
}

// CurrentStatus evaluates today.
func (s *Service) CurrentStatus(ctx context.Context) (Status, error) {
	return s.Status(ctx, s.now())
}

// Status evaluates the calendar date of date against its target.
//
// Past shifts are measured over the full window. Today's shift is measured up to
// now, and while it is in progress the final-stage output is extrapolated linearly
// to the end of the shift. A shift that has not started (a future date, or today
// before the start time) reports zero output for every stage.
func (s *Service) Status(ctx context.Context, date time.Time) (Status, error) {
	now := s.now().In(s.shift.Location)
	day := parse.Day(date, s.shift.Location)
	today := parse.Day(now, s.shift.Location)
	shiftStart, shiftEnd := s.shift.Window(day)

	started := true
	inProgress := false
	queryEnd := shiftEnd
	switch {
	case day.After(today):
		started = false
	case day.Equal(today):
		switch {
		case !now.After(shiftStart):
			started = false
		case now.Before(shiftEnd):
			inProgress = true
			queryEnd = now
		}
	}

	target, err := s.DailyTarget(ctx, day)
	if err != nil {
		return Status{}, err
	}

	var outputs []factory.StageOutput
	if started {
		outputs, err = s.outputs.AllStagesOutput(ctx, shiftStart, queryEnd)
	} else {
		outputs, err = s.outputs.ZeroOutputs(ctx, shiftStart, shiftStart)
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to aggregate output for %s: %w", parse.FormatDate(day), err)
	}

	current := finalStageOutput(outputs)
	projected := current
	if inProgress {
		projected = project(current, now.Sub(shiftStart), shiftEnd.Sub(shiftStart))
	}

	return Status{
		Date:                       parse.FormatDate(day),
		DailyTarget:                target.TargetUnits,
		CurrentOutput:              current,
		ProjectedEndOfDayOutput:    projected,
		TargetCompletionPercentage: completion(current, target.TargetUnits),
		OnTrack:                    projected >= target.TargetUnits,
		StageOutputs:               outputs,
	}, nil
}

// finalStageOutput is the net output of the stage with the highest sequence order.
func finalStageOutput(outputs []factory.StageOutput) int {
	if len(outputs) == 0 {
		return 0
	}
	final := outputs[0]
	for _, o := range outputs[1:] {
		if o.StageOrder > final.StageOrder {
			final = o
		}
	}
	return final.NetUnits()
}

// project scales current by total/elapsed, with elapsed counted in whole minutes.
// Less than a minute in, there is no rate yet and current is returned unchanged.
func project(current int, elapsed, total time.Duration) int {
	elapsedHours := math.Floor(elapsed.Minutes()) / 60.0
	totalHours := math.Floor(total.Minutes()) / 60.0
	if elapsedHours <= 0 {
		return current
	}
	return int(float64(current) * (totalHours / elapsedHours))
}

// completion is 100 for a zero target: nothing to produce means the target is met.
func completion(current, target int) float64 {
	if target <= 0 {
		return 100.0
	}
	return float64(current) / float64(target) * 100
}
