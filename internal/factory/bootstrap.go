package factory

import (
	"context"
	"fmt"
	"time"

	"factory-status-backend/internal/logger"
	"factory-status-backend/internal/model"
	"factory-status-backend/internal/parse"
)

// Bootstrapper populates an empty database with the plant layout, randomized
// device health, targets for today and yesterday, and a synthetic day of metrics
// for both dates.
type Bootstrapper struct {
	seeder Seeder
	gen    *Generator
	shift  Shift
	now    func() time.Time
	log    *logger.Logger
}

// NewBootstrapper creates a bootstrapper. now is injectable for tests; nil means time.Now.
func NewBootstrapper(seeder Seeder, gen *Generator, shift Shift, now func() time.Time, log *logger.Logger) *Bootstrapper {
	if now == nil {
		now = time.Now
	}
	return &Bootstrapper{seeder: seeder, gen: gen, shift: shift, now: now, log: log}
}

// Run seeds the database once. It reports false without writing anything when
// stages already exist. All writes share one transaction.
func (b *Bootstrapper) Run(ctx context.Context) (bool, error) {
	seeded := false
	err := b.seeder.Seed(ctx, func(tx SeedTx) error {
		count, err := tx.CountStages(ctx)
		if err != nil {
			return fmt.Errorf("failed to count stages: %w", err)
		}
		if count > 0 {
			return nil
		}

		b.log.Info("generating random factory data", "date", parse.FormatDate(b.now().In(b.shift.Location)))

		stages, err := b.createLayout(ctx, tx)
		if err != nil {
			return err
		}

		today := parse.Day(b.now(), b.shift.Location)
		yesterday := today.AddDate(0, 0, -1)

		if err := b.seedTargets(ctx, tx, today, yesterday); err != nil {
			return err
		}

		for _, stage := range stages {
			for _, day := range []time.Time{today, yesterday} {
				if err := b.seedDay(ctx, tx, stage, day); err != nil {
					return err
				}
			}
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap failed: %w", err)
	}
	if seeded {
		b.log.Info("random factory data generation complete")
	}
	return seeded, nil
}

func (b *Bootstrapper) createLayout(ctx context.Context, tx SeedTx) ([]*model.Stage, error) {
	stages := make([]*model.Stage, 0, len(plantLayout))
	for _, spec := range plantLayout {
		stages = append(stages, &model.Stage{
			Name:          spec.Name,
			SequenceOrder: spec.Order,
			Description:   spec.Description,
		})
	}
	if err := tx.CreateStages(ctx, stages); err != nil {
		return nil, fmt.Errorf("failed to create stages: %w", err)
	}

	var devices []model.Device
	for i, spec := range plantLayout {
		for _, d := range spec.Devices {
			devices = append(devices, model.Device{
				Code:        d.Code,
				Name:        d.Name,
				Type:        d.Type,
				Operational: true,
				HealthScore: maxHealthScore,
				StageID:     stages[i].ID,
			})
		}
	}

	for _, i := range b.gen.RandomizeHealth(devices) {
		b.log.Info("forced device operational for its stage", "device", devices[i].Name)
	}
	for _, d := range devices {
		if !d.Operational {
			b.log.Info("device is non-operational", "device", d.Name, "health", d.HealthScore)
		}
	}

	ptrs := make([]*model.Device, len(devices))
	for i := range devices {
		ptrs[i] = &devices[i]
	}
	if err := tx.CreateDevices(ctx, ptrs); err != nil {
		return nil, fmt.Errorf("failed to create devices: %w", err)
	}
	return stages, nil
}

func (b *Bootstrapper) seedTargets(ctx context.Context, tx SeedTx, today, yesterday time.Time) error {
	todayUnits := b.gen.Target()
	yesterdayUnits := b.gen.Target()
	if _, err := tx.UpsertTarget(ctx, parse.FormatDate(today), todayUnits); err != nil {
		return fmt.Errorf("failed to save target for today: %w", err)
	}
	if _, err := tx.UpsertTarget(ctx, parse.FormatDate(yesterday), yesterdayUnits); err != nil {
		return fmt.Errorf("failed to save target for yesterday: %w", err)
	}
	b.log.Info("daily targets", "today", todayUnits, "yesterday", yesterdayUnits)
	return nil
}

func (b *Bootstrapper) seedDay(ctx context.Context, tx SeedTx, stage *model.Stage, day time.Time) error {
	devices, err := tx.DevicesForStage(ctx, stage.ID)
	if err != nil {
		return fmt.Errorf("failed to load devices for stage %d: %w", stage.ID, err)
	}

	units := b.gen.StageUnits()
	defects := b.gen.Defects(units)
	shiftStart, _ := b.shift.Window(day)

	records, err := b.gen.DayMetrics(devices, units, defects, shiftStart, b.shift.Hours())
	if err != nil {
		return fmt.Errorf("failed to generate metrics for stage %q: %w", stage.Name, err)
	}
	if len(records) == 0 {
		b.log.Warn("no operational devices, skipping stage", "stage", stage.Name, "date", parse.FormatDate(day))
		return nil
	}
	if err := tx.AppendMetrics(ctx, records); err != nil {
		return fmt.Errorf("failed to save metrics for stage %q: %w", stage.Name, err)
	}
	b.log.Info("generated stage output", "stage", stage.Name, "date", parse.FormatDate(day), "units", units, "defects", defects)
	return nil
}
