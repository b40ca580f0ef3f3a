package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExerciseTime is one logged workout event (pause, resume, lap, segment...).
type ExerciseTime struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index:idx_exercise_time_user_date" json:"user_id"`
	Date          datatypes.Date `gorm:"not null;index:idx_exercise_time_user_date" json:"date"`
	ExerciseType  string         `gorm:"type:varchar(64)" json:"exercise_type"`
	Duration      float64        `json:"duration"`
	DurationUnit  string         `gorm:"type:varchar(10)" json:"duration_unit"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	LastUpdatedBy string         `gorm:"type:varchar(64)" json:"last_updated_by"`
}

func (ExerciseTime) TableName() string {
	return "exercise_time"
}

func (e ExerciseTime) Day() time.Time {
	return time.Time(e.Date)
}
