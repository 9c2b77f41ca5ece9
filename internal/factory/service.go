package factory

import (
	"context"
	"fmt"
	"time"

	"factory-status-backend/internal/model"
)

// DeviceHealth is the health view of one device.
type DeviceHealth struct {
	ID          int64            `json:"id"`
	DeviceID    string           `json:"deviceId"`
	Name        string           `json:"name"`
	DeviceType  model.DeviceType `json:"deviceType"`
	Operational bool             `json:"operational"`
	HealthScore float64          `json:"healthScore"`
}

// StageHealth summarizes the devices of one stage.
type StageHealth struct {
	StageID            int64          `json:"stageId"`
	StageName          string         `json:"stageName"`
	SequenceOrder      int            `json:"sequenceOrder"`
	OverallHealthScore float64        `json:"overallHealthScore"`
	TotalDevices       int            `json:"totalDevices"`
	OperationalDevices int            `json:"operationalDevices"`
	Devices            []DeviceHealth `json:"devices"`
}

// Service serves stage health, device health updates and metric recording.
type Service struct {
	dir     Directory
	devices DeviceStore
	metrics MetricsStore
	now     func() time.Time
}

// NewService creates a Service. now is injectable for tests; nil means time.Now.
func NewService(dir Directory, devices DeviceStore, metrics MetricsStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{dir: dir, devices: devices, metrics: metrics, now: now}
}

// StagesHealth returns the health of every stage in sequence order.
func (s *Service) StagesHealth(ctx context.Context) ([]StageHealth, error) {
	stages, err := s.dir.AllStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	out := make([]StageHealth, 0, len(stages))
	for _, stage := range stages {
		h, err := s.stageHealth(ctx, stage)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// StageHealth returns the health of the stage with the given id.
func (s *Service) StageHealth(ctx context.Context, stageID int64) (StageHealth, error) {
	stage, ok, err := s.dir.StageByID(ctx, stageID)
	if err != nil {
		return StageHealth{}, fmt.Errorf("failed to load stage %d: %w", stageID, err)
	}
	if !ok {
		return StageHealth{}, fmt.Errorf("%w: stage %d", ErrNotFound, stageID)
	}
	return s.stageHealth(ctx, stage)
}

func (s *Service) stageHealth(ctx context.Context, stage model.Stage) (StageHealth, error) {
	devices, err := s.metrics.DevicesForStage(ctx, stage.ID)
	if err != nil {
		return StageHealth{}, fmt.Errorf("failed to load devices for stage %d: %w", stage.ID, err)
	}
	operational, err := s.metrics.OperationalDevicesForStage(ctx, stage.ID)
	if err != nil {
		return StageHealth{}, fmt.Errorf("failed to load operational devices for stage %d: %w", stage.ID, err)
	}

	var total float64
	views := make([]DeviceHealth, 0, len(devices))
	for _, d := range devices {
		total += d.HealthScore
		views = append(views, DeviceHealth{
			ID:          d.ID,
			DeviceID:    d.Code,
			Name:        d.Name,
			DeviceType:  d.Type,
			Operational: d.Operational,
			HealthScore: d.HealthScore,
		})
	}

	var overall float64
	if len(devices) > 0 {
		overall = total / float64(len(devices))
	}

	return StageHealth{
		StageID:            stage.ID,
		StageName:          stage.Name,
		SequenceOrder:      stage.SequenceOrder,
		OverallHealthScore: overall,
		TotalDevices:       len(devices),
		OperationalDevices: len(operational),
		Devices:            views,
	}, nil
}

// UpdateDeviceHealth sets a device's operational flag and health score.
func (s *Service) UpdateDeviceHealth(ctx context.Context, deviceID int64, operational bool, healthScore float64) error {
	if healthScore < 0 || healthScore > maxHealthScore {
		return fmt.Errorf("%w: health score %.1f outside [0, 100]", ErrInvalidInput, healthScore)
	}
	if err := s.requireDevice(ctx, deviceID); err != nil {
		return err
	}
	if err := s.devices.UpdateDeviceHealth(ctx, deviceID, operational, healthScore); err != nil {
		return fmt.Errorf("failed to update device %d: %w", deviceID, err)
	}
	return nil
}

// RecordMetrics appends a production sample for a device, stamped now.
func (s *Service) RecordMetrics(ctx context.Context, deviceID int64, units, defects int, cycleTimeMinutes float64) (model.MetricRecord, error) {
	switch {
	case units < 0:
		return model.MetricRecord{}, fmt.Errorf("%w: units produced %d is negative", ErrInvalidInput, units)
	case defects < 0 || defects > units:
		return model.MetricRecord{}, fmt.Errorf("%w: defective units %d outside [0, %d]", ErrInvalidInput, defects, units)
	case cycleTimeMinutes <= 0:
		return model.MetricRecord{}, fmt.Errorf("%w: cycle time %.2f must be positive", ErrInvalidInput, cycleTimeMinutes)
	}
	if err := s.requireDevice(ctx, deviceID); err != nil {
		return model.MetricRecord{}, err
	}

	rec := model.MetricRecord{
		RecordedAt:       s.now(),
		UnitsProduced:    units,
		DefectiveUnits:   defects,
		CycleTimeMinutes: cycleTimeMinutes,
		DeviceID:         deviceID,
	}
	if err := s.metrics.AppendMetric(ctx, &rec); err != nil {
		return model.MetricRecord{}, fmt.Errorf("failed to record metrics for device %d: %w", deviceID, err)
	}
	return rec, nil
}

func (s *Service) requireDevice(ctx context.Context, deviceID int64) error {
	_, ok, err := s.devices.DeviceByID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to load device %d: %w", deviceID, err)
	}
	if !ok {
		return fmt.Errorf("%w: device %d", ErrNotFound, deviceID)
	}
	return nil
}
