package factory

import (
	"context"
	"time"

	"factory-status-backend/internal/model"
)

// Directory resolves stages.
type Directory interface {
	// AllStages returns every stage ordered by sequence order.
	AllStages(ctx context.Context) ([]model.Stage, error)
	StageBySequenceOrder(ctx context.Context, order int) (model.Stage, bool, error)
	StageByID(ctx context.Context, id int64) (model.Stage, bool, error)
}

// MetricsStore appends production samples and sums them per stage and time range.
// Sums are nil when no record matched.
type MetricsStore interface {
	AppendMetric(ctx context.Context, rec *model.MetricRecord) error
	SumUnits(ctx context.Context, stageOrder int, start, end time.Time) (*int64, error)
	SumDefects(ctx context.Context, stageOrder int, start, end time.Time) (*int64, error)
	DevicesForStage(ctx context.Context, stageID int64) ([]model.Device, error)
	OperationalDevicesForStage(ctx context.Context, stageID int64) ([]model.Device, error)
}

// DeviceStore reads and mutates device health.
type DeviceStore interface {
	DeviceByID(ctx context.Context, id int64) (model.Device, bool, error)
	UpdateDeviceHealth(ctx context.Context, id int64, operational bool, healthScore float64) error
}

// SeedTx is the set of writes the bootstrap performs inside a single transaction.
type SeedTx interface {
	MetricsStore
	CountStages(ctx context.Context) (int64, error)
	CreateStages(ctx context.Context, stages []*model.Stage) error
	CreateDevices(ctx context.Context, devices []*model.Device) error
	AppendMetrics(ctx context.Context, recs []model.MetricRecord) error
	UpsertTarget(ctx context.Context, date string, units int) (model.DailyTarget, error)
}

// Seeder runs fn inside one transaction; any error returned by fn rolls everything back.
type Seeder interface {
	Seed(ctx context.Context, fn func(tx SeedTx) error) error
}
