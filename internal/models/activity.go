package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivitySummary is one day of ring totals from an export's ActivitySummary
// element. Rows are replaced wholesale on every ingestion.
type ActivitySummary struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UserID              uint           `gorm:"not null;index:idx_activity_user_date" json:"user_id"`
	Date                datatypes.Date `gorm:"not null;index:idx_activity_user_date" json:"date"`
	EnergyBurned        float64        `json:"energy_burned"`
	EnergyBurnedGoal    float64        `json:"energy_burned_goal"`
	EnergyBurnedUnit    string         `gorm:"type:varchar(10)" json:"energy_burned_unit"`
	ExerciseMinutes     int            `json:"exercise_minutes"`
	ExerciseMinutesGoal int            `json:"exercise_minutes_goal"`
	StandHours          int            `json:"stand_hours"`
	StandHoursGoal      int            `json:"stand_hours_goal"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	LastUpdatedBy       string         `gorm:"type:varchar(64)" json:"last_updated_by"`
}

func (ActivitySummary) TableName() string {
	return "activity_data"
}

// Day returns the row's calendar date.
func (a ActivitySummary) Day() time.Time {
	return time.Time(a.Date)
}
