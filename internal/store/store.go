package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"factory-status-backend/internal/factory"
	"factory-status-backend/internal/model"
)

// metricBatchSize bounds the rows per INSERT when appending generated metrics.
const metricBatchSize = 100

// Store defines the interface for all database operations.
type Store interface {
	factory.Directory
	factory.MetricsStore
	factory.DeviceStore
	factory.Seeder

	GetTarget(ctx context.Context, date string) (model.DailyTarget, bool, error)
	UpsertTarget(ctx context.Context, date string, units int) (model.DailyTarget, error)

	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	HasSubscription(ctx context.Context, endpoint string) (bool, error)
	UpsertSubscription(ctx context.Context, sub model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error

	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Seed runs fn in a single transaction bound to a transactional copy of the store.
func (s *gormStore) Seed(ctx context.Context, fn func(tx factory.SeedTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- Stages and devices ---

func (s *gormStore) AllStages(ctx context.Context) ([]model.Stage, error) {
	var stages []model.Stage
	if err := s.db.WithContext(ctx).Order("sequence_order ASC").Find(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

func (s *gormStore) StageBySequenceOrder(ctx context.Context, order int) (model.Stage, bool, error) {
	var stage model.Stage
	err := s.db.WithContext(ctx).Where("sequence_order = ?", order).First(&stage).Error
	return found(stage, err)
}

func (s *gormStore) StageByID(ctx context.Context, id int64) (model.Stage, bool, error) {
	var stage model.Stage
	err := s.db.WithContext(ctx).First(&stage, id).Error
	return found(stage, err)
}

func (s *gormStore) CountStages(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Stage{}).Count(&n).Error
	return n, err
}

func (s *gormStore) CreateStages(ctx context.Context, stages []*model.Stage) error {
	if len(stages) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(stages).Error
}

func (s *gormStore) CreateDevices(ctx context.Context, devices []*model.Device) error {
	if len(devices) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(devices).Error
}

func (s *gormStore) DevicesForStage(ctx context.Context, stageID int64) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.WithContext(ctx).Where("stage_id = ?", stageID).Order("id").Find(&devices).Error
	return devices, err
}

func (s *gormStore) OperationalDevicesForStage(ctx context.Context, stageID int64) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.WithContext(ctx).Where("stage_id = ? AND operational = ?", stageID, true).Order("id").Find(&devices).Error
	return devices, err
}

func (s *gormStore) DeviceByID(ctx context.Context, id int64) (model.Device, bool, error) {
	var device model.Device
	err := s.db.WithContext(ctx).First(&device, id).Error
	return found(device, err)
}

func (s *gormStore) UpdateDeviceHealth(ctx context.Context, id int64, operational bool, healthScore float64) error {
	return s.db.WithContext(ctx).Model(&model.Device{ID: id}).Updates(map[string]any{
		"operational":  operational,
		"health_score": healthScore,
	}).Error
}

// --- Metrics ---

// AppendMetric inserts one record. Timestamps are stored in UTC so range
// comparisons behave the same on every driver.
func (s *gormStore) AppendMetric(ctx context.Context, rec *model.MetricRecord) error {
	rec.RecordedAt = rec.RecordedAt.UTC()
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *gormStore) AppendMetrics(ctx context.Context, recs []model.MetricRecord) error {
	if len(recs) == 0 {
		return nil
	}
	for i := range recs {
		recs[i].RecordedAt = recs[i].RecordedAt.UTC()
	}
	return s.db.WithContext(ctx).CreateInBatches(recs, metricBatchSize).Error
}

func (s *gormStore) SumUnits(ctx context.Context, stageOrder int, start, end time.Time) (*int64, error) {
	return s.sumForStage(ctx, "units_produced", stageOrder, start, end)
}

func (s *gormStore) SumDefects(ctx context.Context, stageOrder int, start, end time.Time) (*int64, error) {
	return s.sumForStage(ctx, "defective_units", stageOrder, start, end)
}

// sumForStage sums column over the records of every device of the stage within
// [start, end]. It returns nil when no record matched.
func (s *gormStore) sumForStage(ctx context.Context, column string, stageOrder int, start, end time.Time) (*int64, error) {
	var total sql.NullInt64
	err := s.db.WithContext(ctx).
		Model(&model.MetricRecord{}).
		Select("SUM(production_metrics."+column+")").
		Joins("JOIN devices ON devices.id = production_metrics.device_id").
		Joins("JOIN stages ON stages.id = devices.stage_id").
		Where("stages.sequence_order = ? AND production_metrics.recorded_at BETWEEN ? AND ?", stageOrder, start.UTC(), end.UTC()).
		Row().
		Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("sum %s: %w", column, err)
	}
	if !total.Valid {
		return nil, nil
	}
	return &total.Int64, nil
}

// --- Targets ---

func (s *gormStore) GetTarget(ctx context.Context, date string) (model.DailyTarget, bool, error) {
	var target model.DailyTarget
	err := s.db.WithContext(ctx).Where("date = ?", date).First(&target).Error
	return found(target, err)
}

func (s *gormStore) UpsertTarget(ctx context.Context, date string, units int) (model.DailyTarget, error) {
	target := model.DailyTarget{Date: date, TargetUnits: units}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_units", "updated_at"}),
	}).Create(&target).Error
	if err != nil {
		return model.DailyTarget{}, err
	}
	return target, nil
}

// --- Push subscriptions ---

func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).Find(&subs).Error
	return subs, err
}

func (s *gormStore) HasSubscription(ctx context.Context, endpoint string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.PushSubscription{}).Where("endpoint = ?", endpoint).Count(&n).Error
	return n > 0, err
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(&sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// found turns gorm's ErrRecordNotFound into a false flag.
func found[T any](v T, err error) (T, bool, error) {
	var zero T
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
