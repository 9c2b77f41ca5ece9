package model

import "time"

// Stage is a step of the production pipeline. The stage with the highest
// SequenceOrder is the final stage; its net output is the factory output.
type Stage struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:128;not null" json:"name"`
	SequenceOrder int       `gorm:"uniqueIndex;not null" json:"sequenceOrder"`
	Description   string    `gorm:"size:512" json:"description"`
	CreatedAt     time.Time `gorm:"not null" json:"-"`

	// Associations
	Devices []Device `gorm:"foreignKey:StageID" json:"-"`
}
