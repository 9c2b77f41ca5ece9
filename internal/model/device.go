package model

import "time"

// DeviceType tags the kind of equipment a device is.
type DeviceType string

const (
	DeviceTypeWeldingRobot   DeviceType = "WELDING_ROBOT"
	DeviceTypeStampingPress  DeviceType = "STAMPING_PRESS"
	DeviceTypeQualityScanner DeviceType = "QUALITY_SCANNER"
	DeviceTypePaintRobot     DeviceType = "PAINT_ROBOT"
	DeviceTypeDryingOven     DeviceType = "DRYING_OVEN"
	DeviceTypeColorMixer     DeviceType = "COLOR_MIXER"
	DeviceTypeAssemblyRobot  DeviceType = "ASSEMBLY_ROBOT"
)

// Device is a piece of IoT-connected equipment attached to one stage.
type Device struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"uniqueIndex;size:32;not null" json:"deviceId"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Type        DeviceType `gorm:"size:32;not null" json:"deviceType"`
	Operational bool       `gorm:"not null" json:"operational"`
	HealthScore float64    `gorm:"not null" json:"healthScore"` // 0-100
	StageID     int64      `gorm:"index;not null" json:"-"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`

	// Associations
	Stage Stage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
