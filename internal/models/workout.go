package models

import (
	"time"

	"gorm.io/datatypes"
)

// Device categories derived from the export's free-text device field.
const (
	DeviceWearable = "wearable"
	DevicePhone    = "phone"
)

// Workout is one recorded workout session.
type Workout struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                uint           `gorm:"not null;index:idx_workout_user_date" json:"user_id"`
	Date                  datatypes.Date `gorm:"not null;index:idx_workout_user_date" json:"date"`
	Activity              string         `gorm:"type:varchar(64)" json:"activity"`
	Duration              float64        `json:"duration"`
	DurationUnit          string         `gorm:"type:varchar(10)" json:"duration_unit"`
	TotalDistance         float64        `json:"total_distance"`
	TotalDistanceUnit     string         `gorm:"type:varchar(10)" json:"total_distance_unit"`
	TotalEnergyBurned     float64        `json:"total_energy_burned"`
	TotalEnergyBurnedUnit string         `gorm:"type:varchar(10)" json:"total_energy_burned_unit"`
	DeviceCategory        string         `gorm:"type:varchar(15)" json:"device_category"`
	StartDate             time.Time      `json:"start_date"`
	EndDate               time.Time      `json:"end_date"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	LastUpdatedBy         string         `gorm:"type:varchar(64)" json:"last_updated_by"`
}

func (Workout) TableName() string {
	return "workout_data"
}

func (w Workout) Day() time.Time {
	return time.Time(w.Date)
}
