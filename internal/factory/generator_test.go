package factory

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factory-status-backend/internal/model"
	"factory-status-backend/internal/parse"
)

// testShiftHours matches DefaultShift.
const testShiftHours = 8

func newTestGenerator(cfg GeneratorConfig) *Generator {
	return NewGenerator(cfg, rand.New(rand.NewPCG(42, 7)))
}

func devicesOnStage(stageID int64, operational ...bool) []model.Device {
	devices := make([]model.Device, len(operational))
	for i, op := range operational {
		devices[i] = model.Device{ID: stageID*10 + int64(i), StageID: stageID, Operational: op}
	}
	return devices
}

func isOneDecimal(v float64) bool {
	return math.Abs(v*10-math.Round(v*10)) < 1e-9
}

func TestGenerator_DayMetrics(t *testing.T) {
	shiftStart := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	testCases := []struct {
		name            string
		devices         []model.Device
		units           int
		defects         int
		expectedRecords int
	}{
		{name: "All devices operational", devices: devicesOnStage(1, true, true, true, true), units: 140, defects: 6, expectedRecords: 32},
		{name: "Non-operational devices are skipped", devices: devicesOnStage(1, true, false, true, false), units: 97, defects: 3, expectedRecords: 16},
		{name: "Zero units still yields hourly records", devices: devicesOnStage(1, true), units: 0, defects: 0, expectedRecords: 8},
		{name: "No operational device yields nothing", devices: devicesOnStage(1, false, false), units: 120, defects: 4, expectedRecords: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen := newTestGenerator(DefaultGeneratorConfig())

			records, err := gen.DayMetrics(tc.devices, tc.units, tc.defects, shiftStart, testShiftHours)
			require.NoError(t, err)
			require.Len(t, records, tc.expectedRecords)
			if tc.expectedRecords == 0 {
				return
			}

			operational := map[int64]bool{}
			for _, d := range tc.devices {
				operational[d.ID] = d.Operational
			}

			units, defects := 0, 0
			perDevice := map[int64]int{}
			for _, r := range records {
				units += r.UnitsProduced
				defects += r.DefectiveUnits
				perDevice[r.DeviceID]++

				assert.True(t, operational[r.DeviceID], "record for non-operational device %d", r.DeviceID)
				assert.False(t, r.RecordedAt.Before(shiftStart))
				assert.True(t, r.RecordedAt.Before(shiftStart.Add(testShiftHours*time.Hour)))
				assert.Zero(t, r.RecordedAt.Sub(shiftStart)%time.Hour)
				assert.GreaterOrEqual(t, r.CycleTimeMinutes, minCycleMinutes)
				assert.LessOrEqual(t, r.CycleTimeMinutes, maxCycleMinutes)
				assert.True(t, isOneDecimal(r.CycleTimeMinutes), "cycle time %v", r.CycleTimeMinutes)
			}
			assert.Equal(t, tc.units, units)
			assert.Equal(t, tc.defects, defects)
			for id, n := range perDevice {
				assert.Equal(t, testShiftHours, n, "device %d", id)
			}
		})
	}
}

func TestGenerator_DayMetrics_SplitsEvenlyAcrossDevicesAndHours(t *testing.T) {
	shiftStart := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	gen := newTestGenerator(DefaultGeneratorConfig())

	records, err := gen.DayMetrics(devicesOnStage(1, true, true, true, true), 140, 6, shiftStart, testShiftHours)
	require.NoError(t, err)

	unitsPerDevice := map[int64]int{}
	for _, r := range records {
		unitsPerDevice[r.DeviceID] += r.UnitsProduced
		// 35 units over 8 hours: 5,5,5,4,4,4,4,4
		assert.Contains(t, []int{4, 5}, r.UnitsProduced)
	}
	for _, u := range unitsPerDevice {
		assert.Equal(t, 35, u)
	}
}

func TestGenerator_DayMetrics_IsReproducibleForASeed(t *testing.T) {
	shiftStart := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	devices := devicesOnStage(1, true, true, true)

	a, err := newTestGenerator(DefaultGeneratorConfig()).DayMetrics(devices, 130, 5, shiftStart, testShiftHours)
	require.NoError(t, err)
	b, err := newTestGenerator(DefaultGeneratorConfig()).DayMetrics(devices, 130, 5, shiftStart, testShiftHours)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerator_DayMetrics_StaysInsideAShortShift(t *testing.T) {
	shift := Shift{Start: parse.Clock{Hour: 8}, End: parse.Clock{Hour: 12}, Location: time.UTC}
	shiftStart, shiftEnd := shift.Window(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	gen := newTestGenerator(DefaultGeneratorConfig())

	records, err := gen.DayMetrics(devicesOnStage(1, true), 140, 6, shiftStart, shift.Hours())
	require.NoError(t, err)
	require.Len(t, records, 4)

	units, defects := 0, 0
	for _, r := range records {
		assert.False(t, r.RecordedAt.Before(shiftStart))
		assert.True(t, r.RecordedAt.Before(shiftEnd), "record at %s", r.RecordedAt)
		units += r.UnitsProduced
		defects += r.DefectiveUnits
	}
	assert.Equal(t, 140, units)
	assert.Equal(t, 6, defects)
}

func TestGenerator_DayMetrics_RejectsEmptyShift(t *testing.T) {
	shiftStart := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	gen := newTestGenerator(DefaultGeneratorConfig())

	records, err := gen.DayMetrics(devicesOnStage(1, true), 140, 6, shiftStart, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, records)
}

func TestGenerator_RandomizeHealth(t *testing.T) {
	testCases := []struct {
		name               string
		failureProbability float64
		expectedRepairs    int
	}{
		{name: "Nothing fails, nothing to repair", failureProbability: 0, expectedRepairs: 0},
		{name: "Everything fails, every stage repaired once", failureProbability: 1, expectedRepairs: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultGeneratorConfig()
			cfg.FailureProbability = tc.failureProbability
			gen := newTestGenerator(cfg)

			var devices []model.Device
			for stage := int64(1); stage <= 3; stage++ {
				devices = append(devices, devicesOnStage(stage, true, true, true, true)...)
			}

			repaired := gen.RandomizeHealth(devices)
			assert.Len(t, repaired, tc.expectedRepairs)

			operationalPerStage := map[int64]int{}
			for _, d := range devices {
				if d.Operational {
					operationalPerStage[d.StageID]++
					assert.GreaterOrEqual(t, d.HealthScore, cfg.HealthyMin)
					assert.LessOrEqual(t, d.HealthScore, maxHealthScore)
				} else {
					assert.GreaterOrEqual(t, d.HealthScore, cfg.DegradedMin)
					assert.LessOrEqual(t, d.HealthScore, cfg.DegradedMax)
				}
				assert.True(t, isOneDecimal(d.HealthScore), "health %v", d.HealthScore)
			}
			for stage := int64(1); stage <= 3; stage++ {
				assert.GreaterOrEqual(t, operationalPerStage[stage], 1, "stage %d", stage)
			}
			if tc.failureProbability == 1 {
				for stage := int64(1); stage <= 3; stage++ {
					assert.Equal(t, 1, operationalPerStage[stage], "stage %d", stage)
				}
			}
		})
	}
}

func TestGenerator_EnsureOperationalPerStage_LeavesHealthyStagesAlone(t *testing.T) {
	gen := newTestGenerator(DefaultGeneratorConfig())
	devices := append(devicesOnStage(1, false, true), devicesOnStage(2, false, false)...)

	repaired := gen.EnsureOperationalPerStage(devices)

	require.Len(t, repaired, 1)
	assert.Equal(t, int64(2), devices[repaired[0]].StageID)
	assert.False(t, devices[0].Operational)
	assert.True(t, devices[1].Operational)
}

func TestGenerator_Defects(t *testing.T) {
	gen := newTestGenerator(DefaultGeneratorConfig())

	assert.Equal(t, 0, gen.Defects(0))
	assert.Equal(t, 1, gen.Defects(10), "a run with units records at least one defect")

	for i := 0; i < 200; i++ {
		d := gen.Defects(150)
		assert.GreaterOrEqual(t, d, 2)
		assert.LessOrEqual(t, d, 9)
	}
}

func TestGenerator_TargetAndStageUnitsStayInRange(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	gen := newTestGenerator(cfg)

	for i := 0; i < 500; i++ {
		target := gen.Target()
		assert.GreaterOrEqual(t, target, cfg.TargetMin)
		assert.LessOrEqual(t, target, cfg.TargetMax)

		units := gen.StageUnits()
		assert.GreaterOrEqual(t, units, cfg.StageUnitsMin)
		assert.LessOrEqual(t, units, cfg.StageUnitsMax)
	}

	cfg.TargetMin, cfg.TargetMax = 120, 120
	assert.Equal(t, 120, newTestGenerator(cfg).Target())
}
