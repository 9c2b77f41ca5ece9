package model

import "time"

// MetricRecord is one append-only production sample reported by a device.
type MetricRecord struct {
	ID               int64     `gorm:"primaryKey"`
	RecordedAt       time.Time `gorm:"not null;index"`
	UnitsProduced    int       `gorm:"not null"`
	DefectiveUnits   int       `gorm:"not null"`
	CycleTimeMinutes float64   `gorm:"not null"`
	DeviceID         int64     `gorm:"not null;index"`
}

// TableName keeps the table name aligned with the TimescaleDB DDL.
func (MetricRecord) TableName() string {
	return "production_metrics"
}
