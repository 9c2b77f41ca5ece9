package factory

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"factory-status-backend/internal/model"
)

const (
	minCycleMinutes = 4.0
	maxCycleMinutes = 8.0
	maxHealthScore  = 100.0
)

// GeneratorConfig bounds every random draw the generator makes.
type GeneratorConfig struct {
	FailureProbability float64
	HealthyMin         float64
	DegradedMin        float64
	DegradedMax        float64
	TargetMin          int
	TargetMax          int
	StageUnitsMin      int
	StageUnitsMax      int
	DefectRateMin      float64
	DefectRateMax      float64
}

// DefaultGeneratorConfig returns the ranges used when nothing is configured.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FailureProbability: 0.15,
		HealthyMin:         70,
		DegradedMin:        20,
		DegradedMax:        60,
		TargetMin:          100,
		TargetMax:          160,
		StageUnitsMin:      90,
		StageUnitsMax:      170,
		DefectRateMin:      0.01,
		DefectRateMax:      0.06,
	}
}

// Generator synthesizes a plausible day of production from coarse totals.
// It is not safe for concurrent use; rng is owned by the generator.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from rng. Pass a seeded source for reproducible output.
func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// DayMetrics spreads totalUnits and totalDefects over the operational devices in
// devices and then over hours hourly buckets starting at shiftStart. Units and
// defects are distributed independently. No records are produced when no device
// is operational.
func (g *Generator) DayMetrics(devices []model.Device, totalUnits, totalDefects int, shiftStart time.Time, hours int) ([]model.MetricRecord, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("%w: shift must span at least one hour bucket, got %d", ErrInvalidInput, hours)
	}

	var operational []model.Device
	for _, d := range devices {
		if d.Operational {
			operational = append(operational, d)
		}
	}
	if len(operational) == 0 {
		return nil, nil
	}

	unitsPerDevice, err := Distribute(totalUnits, len(operational))
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	defectsPerDevice, err := Distribute(totalDefects, len(operational))
	if err != nil {
		return nil, fmt.Errorf("defects: %w", err)
	}

	records := make([]model.MetricRecord, 0, len(operational)*hours)
	for i, device := range operational {
		hourlyUnits, err := Distribute(unitsPerDevice[i], hours)
		if err != nil {
			return nil, err
		}
		hourlyDefects, err := Distribute(defectsPerDevice[i], hours)
		if err != nil {
			return nil, err
		}

		for hour := 0; hour < hours; hour++ {
			records = append(records, model.MetricRecord{
				RecordedAt:       shiftStart.Add(time.Duration(hour) * time.Hour),
				UnitsProduced:    hourlyUnits[hour],
				DefectiveUnits:   hourlyDefects[hour],
				CycleTimeMinutes: g.cycleTime(),
				DeviceID:         device.ID,
			})
		}
	}
	return records, nil
}

// RandomizeHealth marks each device non-operational with the configured failure
// probability (degraded score) and operational otherwise (healthy score), then
// repairs stages left without an operational device. It returns the indices of
// the devices the repair pass forced operational.
func (g *Generator) RandomizeHealth(devices []model.Device) []int {
	for i := range devices {
		if g.rng.Float64() < g.cfg.FailureProbability {
			devices[i].Operational = false
			devices[i].HealthScore = round1(g.uniform(g.cfg.DegradedMin, g.cfg.DegradedMax))
		} else {
			devices[i].Operational = true
			devices[i].HealthScore = g.healthyScore()
		}
	}
	return g.EnsureOperationalPerStage(devices)
}

// EnsureOperationalPerStage scans stages in order of first appearance and, for
// any stage with no operational device, forces one randomly picked device of that
// stage operational with a healthy score.
func (g *Generator) EnsureOperationalPerStage(devices []model.Device) []int {
	var order []int64
	byStage := make(map[int64][]int)
	for i, d := range devices {
		if _, seen := byStage[d.StageID]; !seen {
			order = append(order, d.StageID)
		}
		byStage[d.StageID] = append(byStage[d.StageID], i)
	}

	var repaired []int
	for _, stageID := range order {
		idx := byStage[stageID]
		hasOperational := false
		for _, i := range idx {
			if devices[i].Operational {
				hasOperational = true
				break
			}
		}
		if hasOperational {
			continue
		}
		picked := idx[g.rng.IntN(len(idx))]
		devices[picked].Operational = true
		devices[picked].HealthScore = g.healthyScore()
		repaired = append(repaired, picked)
	}
	return repaired
}

// Target draws a daily target unit count.
func (g *Generator) Target() int {
	return g.between(g.cfg.TargetMin, g.cfg.TargetMax)
}

// StageUnits draws a stage's total units for one day.
func (g *Generator) StageUnits() int {
	return g.between(g.cfg.StageUnitsMin, g.cfg.StageUnitsMax)
}

// Defects derives a defect count from a unit total. A run with units always
// records at least one defect.
func (g *Generator) Defects(totalUnits int) int {
	if totalUnits <= 0 {
		return 0
	}
	rate := decimal.NewFromFloat(g.uniform(g.cfg.DefectRateMin, g.cfg.DefectRateMax))
	n := int(rate.Mul(decimal.NewFromInt(int64(totalUnits))).Round(0).IntPart())
	return max(1, n)
}

func (g *Generator) cycleTime() float64 {
	return round1(g.uniform(minCycleMinutes, maxCycleMinutes))
}

func (g *Generator) healthyScore() float64 {
	return round1(g.uniform(g.cfg.HealthyMin, maxHealthScore))
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// between is inclusive on both ends.
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
