package transform

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"healthtrends/internal/healthexport"
	"healthtrends/internal/models"
)

// Stamp is the ingestion metadata written onto every output row.
type Stamp struct {
	UserID    uint
	UpdatedBy string
	At        time.Time
}

// Tables is the typed output of one export.
type Tables struct {
	ActivitySummaries []models.ActivitySummary
	ExerciseTimes     []models.ExerciseTime
	Workouts          []models.Workout
	Reports           []Report
}

// Dropped returns the number of rows removed by the sentinel filter.
func (t *Tables) Dropped() int {
	n := 0
	for _, r := range t.Reports {
		n += r.Dropped
	}
	return n
}

// Warnings returns every coercion warning across the three tables.
func (t *Tables) Warnings() []Warning {
	var out []Warning
	for _, r := range t.Reports {
		out = append(out, r.Warnings...)
	}
	return out
}

// Build converts an extracted batch into the three output tables.
func Build(batch *healthexport.Batch, stamp Stamp) *Tables {
	activity, ar := BuildActivitySummaries(batch.ActivitySummaries, stamp)
	exercise, er := BuildExerciseTimes(batch.WorkoutEvents, stamp)
	workouts, wr := BuildWorkouts(batch.Workouts, stamp)
	return &Tables{
		ActivitySummaries: activity,
		ExerciseTimes:     exercise,
		Workouts:          workouts,
		Reports:           []Report{ar, er, wr},
	}
}

// BuildActivitySummaries types ActivitySummary records and drops days before
// the sentinel.
func BuildActivitySummaries(recs []healthexport.Record, stamp Stamp) ([]models.ActivitySummary, Report) {
	report := Report{Table: ActivitySummarySchema.Table, Input: len(recs)}
	out := make([]models.ActivitySummary, 0, len(recs))

	for i, rec := range recs {
		c := cells{schema: ActivitySummarySchema, rec: rec, row: i, report: &report}
		day, ok := c.date("date")
		if !ok || beforeSentinel(day) {
			report.Dropped++
			continue
		}
		out = append(out, models.ActivitySummary{
			UserID:              stamp.UserID,
			Date:                datatypes.Date(day),
			EnergyBurned:        c.real("energy_burned"),
			EnergyBurnedGoal:    c.real("energy_burned_goal"),
			EnergyBurnedUnit:    c.text("energy_burned_unit"),
			ExerciseMinutes:     c.integer("exercise_minutes"),
			ExerciseMinutesGoal: c.integer("exercise_minutes_goal"),
			StandHours:          c.integer("stand_hours"),
			StandHoursGoal:      c.integer("stand_hours_goal"),
			CreatedAt:           stamp.At,
			UpdatedAt:           stamp.At,
			LastUpdatedBy:       stamp.UpdatedBy,
		})
	}
	report.Kept = len(out)
	return out, report
}

// BuildExerciseTimes types WorkoutEvent records.
func BuildExerciseTimes(recs []healthexport.Record, stamp Stamp) ([]models.ExerciseTime, Report) {
	report := Report{Table: ExerciseTimeSchema.Table, Input: len(recs)}
	out := make([]models.ExerciseTime, 0, len(recs))

	for i, rec := range recs {
		c := cells{schema: ExerciseTimeSchema, rec: rec, row: i, report: &report}
		day, ok := c.date("date")
		if !ok || beforeSentinel(day) {
			report.Dropped++
			continue
		}
		out = append(out, models.ExerciseTime{
			UserID:        stamp.UserID,
			Date:          datatypes.Date(day),
			ExerciseType:  c.text("exercise_type"),
			Duration:      c.real("duration"),
			DurationUnit:  c.text("duration_unit"),
			CreatedAt:     stamp.At,
			UpdatedAt:     stamp.At,
			LastUpdatedBy: stamp.UpdatedBy,
		})
	}
	report.Kept = len(out)
	return out, report
}

// Workout normalisation constants.
const (
	WatchMarker        = "Apple Watch"
	ActivityTypePrefix = "HKWorkoutActivityType"
)

// DeviceCategory classifies the free-text device attribute.
func DeviceCategory(device string) string {
	if strings.Contains(device, WatchMarker) {
		return models.DeviceWearable
	}
	return models.DevicePhone
}

// ActivityName strips the HealthKit type prefix from a workout activity type.
func ActivityName(raw string) string {
	return strings.TrimPrefix(raw, ActivityTypePrefix)
}

// BuildWorkouts types and normalises Workout records. Creation, start and
// end timestamps are each checked against the sentinel; failing any one
// drops the row.
func BuildWorkouts(recs []healthexport.Record, stamp Stamp) ([]models.Workout, Report) {
	report := Report{Table: WorkoutSchema.Table, Input: len(recs)}
	out := make([]models.Workout, 0, len(recs))

	for i, rec := range recs {
		c := cells{schema: WorkoutSchema, rec: rec, row: i, report: &report}
		created, okCreated := c.timestamp("creation_date")
		start, okStart := c.timestamp("start_date")
		end, okEnd := c.timestamp("end_date")
		if !okCreated || !okStart || !okEnd ||
			beforeSentinel(created) || beforeSentinel(start) || beforeSentinel(end) {
			report.Dropped++
			continue
		}
		out = append(out, models.Workout{
			UserID:                stamp.UserID,
			Date:                  datatypes.Date(calendarDate(start)),
			Activity:              ActivityName(c.text("activity_type")),
			Duration:              c.real("duration"),
			DurationUnit:          c.text("duration_unit"),
			TotalDistance:         c.real("total_distance"),
			TotalDistanceUnit:     c.text("total_distance_unit"),
			TotalEnergyBurned:     c.real("total_energy_burned"),
			TotalEnergyBurnedUnit: c.text("total_energy_burned_unit"),
			DeviceCategory:        DeviceCategory(c.text("device")),
			StartDate:             start,
			EndDate:               end,
			CreatedAt:             stamp.At,
			UpdatedAt:             stamp.At,
			LastUpdatedBy:         stamp.UpdatedBy,
		})
	}
	report.Kept = len(out)
	return out, report
}
