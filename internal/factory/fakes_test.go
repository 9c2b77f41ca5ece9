package factory

import (
	"context"
	"errors"
	"sync"
	"time"

	"factory-status-backend/internal/model"
)

// memStore is an in-memory implementation of every store interface the
// factory package depends on.
type memStore struct {
	mu      sync.Mutex
	stages  []model.Stage
	devices []model.Device
	metrics []model.MetricRecord
	targets map[string]int
	nextID  int64

	seedCalls int
	failSums  error
}

func newMemStore() *memStore {
	return &memStore{targets: map[string]int{}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// addStage registers a stage with the given devices and returns the stage id.
func (m *memStore) addStage(name string, order int, devices ...model.Device) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	stage := model.Stage{ID: m.id(), Name: name, SequenceOrder: order}
	m.stages = append(m.stages, stage)
	for _, d := range devices {
		d.ID = m.id()
		d.StageID = stage.ID
		m.devices = append(m.devices, d)
	}
	return stage.ID
}

func (m *memStore) record(deviceID int64, at time.Time, units, defects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = append(m.metrics, model.MetricRecord{
		ID: m.id(), RecordedAt: at, UnitsProduced: units, DefectiveUnits: defects, CycleTimeMinutes: 5, DeviceID: deviceID,
	})
}

func (m *memStore) deviceIDsOf(stageID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, d := range m.devices {
		if d.StageID == stageID {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func (m *memStore) Seed(ctx context.Context, fn func(tx SeedTx) error) error {
	m.mu.Lock()
	m.seedCalls++
	stages := append([]model.Stage(nil), m.stages...)
	devices := append([]model.Device(nil), m.devices...)
	metrics := append([]model.MetricRecord(nil), m.metrics...)
	targets := make(map[string]int, len(m.targets))
	for k, v := range m.targets {
		targets[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.stages, m.devices, m.metrics, m.targets = stages, devices, metrics, targets
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) AllStages(ctx context.Context) ([]model.Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.Stage(nil), m.stages...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].SequenceOrder < out[j-1].SequenceOrder; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *memStore) StageBySequenceOrder(ctx context.Context, order int) (model.Stage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stages {
		if s.SequenceOrder == order {
			return s, true, nil
		}
	}
	return model.Stage{}, false, nil
}

func (m *memStore) StageByID(ctx context.Context, id int64) (model.Stage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stages {
		if s.ID == id {
			return s, true, nil
		}
	}
	return model.Stage{}, false, nil
}

func (m *memStore) AppendMetric(ctx context.Context, rec *model.MetricRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id()
	m.metrics = append(m.metrics, *rec)
	return nil
}

func (m *memStore) AppendMetrics(ctx context.Context, recs []model.MetricRecord) error {
	for i := range recs {
		if err := m.AppendMetric(ctx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) SumUnits(ctx context.Context, stageOrder int, start, end time.Time) (*int64, error) {
	return m.sum(stageOrder, start, end, func(r model.MetricRecord) int { return r.UnitsProduced })
}

func (m *memStore) SumDefects(ctx context.Context, stageOrder int, start, end time.Time) (*int64, error) {
	return m.sum(stageOrder, start, end, func(r model.MetricRecord) int { return r.DefectiveUnits })
}

func (m *memStore) sum(stageOrder int, start, end time.Time, field func(model.MetricRecord) int) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSums != nil {
		return nil, m.failSums
	}
	stageOf := make(map[int64]int64, len(m.devices))
	for _, d := range m.devices {
		stageOf[d.ID] = d.StageID
	}
	var stageID int64 = -1
	for _, s := range m.stages {
		if s.SequenceOrder == stageOrder {
			stageID = s.ID
		}
	}

	var total int64
	matched := false
	for _, r := range m.metrics {
		if stageOf[r.DeviceID] != stageID || r.RecordedAt.Before(start) || r.RecordedAt.After(end) {
			continue
		}
		matched = true
		total += int64(field(r))
	}
	if !matched {
		return nil, nil
	}
	return &total, nil
}

func (m *memStore) DevicesForStage(ctx context.Context, stageID int64) ([]model.Device, error) {
	return m.devicesWhere(func(d model.Device) bool { return d.StageID == stageID }), nil
}

func (m *memStore) OperationalDevicesForStage(ctx context.Context, stageID int64) ([]model.Device, error) {
	return m.devicesWhere(func(d model.Device) bool { return d.StageID == stageID && d.Operational }), nil
}

func (m *memStore) devicesWhere(keep func(model.Device) bool) []model.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Device
	for _, d := range m.devices {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func (m *memStore) DeviceByID(ctx context.Context, id int64) (model.Device, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.ID == id {
			return d, true, nil
		}
	}
	return model.Device{}, false, nil
}

func (m *memStore) UpdateDeviceHealth(ctx context.Context, id int64, operational bool, healthScore float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.devices {
		if m.devices[i].ID == id {
			m.devices[i].Operational = operational
			m.devices[i].HealthScore = healthScore
			return nil
		}
	}
	return errors.New("device vanished")
}

func (m *memStore) CountStages(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.stages)), nil
}

func (m *memStore) CreateStages(ctx context.Context, stages []*model.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range stages {
		s.ID = m.id()
		m.stages = append(m.stages, *s)
	}
	return nil
}

func (m *memStore) CreateDevices(ctx context.Context, devices []*model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range devices {
		d.ID = m.id()
		m.devices = append(m.devices, *d)
	}
	return nil
}

func (m *memStore) UpsertTarget(ctx context.Context, date string, units int) (model.DailyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets[date] = units
	return model.DailyTarget{Date: date, TargetUnits: units}, nil
}
