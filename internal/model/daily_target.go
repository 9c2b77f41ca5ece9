package model

import "time"

// DailyTarget is the production goal for one calendar date (YYYY-MM-DD).
type DailyTarget struct {
	Date        string    `gorm:"primaryKey;size:10" json:"date"`
	TargetUnits int       `gorm:"not null" json:"targetUnits"`
	UpdatedAt   time.Time `json:"-"`
}
