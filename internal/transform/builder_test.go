package transform

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtrends/internal/healthexport"
	"healthtrends/internal/models"
)

var testStamp = Stamp{
	UserID:    7,
	UpdatedBy: "brandon",
	At:        time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC),
}

func rec(kind healthexport.Kind, attrs map[string]string) healthexport.Record {
	return healthexport.Record{Kind: kind, Attrs: attrs}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildActivitySummaries(t *testing.T) {
	recs := []healthexport.Record{
		rec(healthexport.KindActivitySummary, map[string]string{
			"dateComponents":         "2023-01-02",
			"activeEnergyBurned":     "600.25",
			"activeEnergyBurnedGoal": "500",
			"activeEnergyBurnedUnit": "kcal",
			"appleExerciseTime":      "45",
			"appleExerciseTimeGoal":  "30",
			"appleStandHours":        "13",
			"appleStandHoursGoal":    "12",
		}),
		rec(healthexport.KindActivitySummary, map[string]string{"dateComponents": "1999-12-31"}),
		rec(healthexport.KindActivitySummary, map[string]string{"dateComponents": "2000-01-01"}),
	}

	rows, report := BuildActivitySummaries(recs, testStamp)

	require.Len(t, rows, 2)
	assert.Equal(t, Report{Table: "activity_data", Input: 3, Kept: 2, Dropped: 1}, report)

	first := rows[0]
	assert.Equal(t, day(2023, 1, 2), first.Day())
	assert.Equal(t, 600.25, first.EnergyBurned)
	assert.Equal(t, 500.0, first.EnergyBurnedGoal)
	assert.Equal(t, "kcal", first.EnergyBurnedUnit)
	assert.Equal(t, 45, first.ExerciseMinutes)
	assert.Equal(t, 30, first.ExerciseMinutesGoal)
	assert.Equal(t, 13, first.StandHours)
	assert.Equal(t, 12, first.StandHoursGoal)
	assert.Equal(t, uint(7), first.UserID)
	assert.Equal(t, "brandon", first.LastUpdatedBy)
	assert.Equal(t, testStamp.At, first.CreatedAt)
	assert.Equal(t, testStamp.At, first.UpdatedAt)

	// The sentinel day itself is kept; every measure defaults to its zero value.
	second := rows[1]
	assert.Equal(t, day(2000, 1, 1), second.Day())
	assert.Zero(t, second.EnergyBurned)
	assert.Equal(t, "", second.EnergyBurnedUnit)
}

func TestBuildActivitySummariesDropsUnparsableDates(t *testing.T) {
	recs := []healthexport.Record{
		rec(healthexport.KindActivitySummary, map[string]string{"dateComponents": "not a date"}),
		rec(healthexport.KindActivitySummary, map[string]string{}),
	}
	rows, report := BuildActivitySummaries(recs, testStamp)
	assert.Empty(t, rows)
	assert.Equal(t, 2, report.Dropped)
}

func TestCoercionFailureBecomesZeroWithWarning(t *testing.T) {
	recs := []healthexport.Record{
		rec(healthexport.KindActivitySummary, map[string]string{
			"dateComponents":     "2023-01-01",
			"activeEnergyBurned": "lots",
			"appleStandHours":    "NaN",
			"appleExerciseTime":  "12.9",
		}),
	}
	rows, report := BuildActivitySummaries(recs, testStamp)

	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].EnergyBurned)
	assert.Zero(t, rows[0].StandHours)
	assert.Equal(t, 12, rows[0].ExerciseMinutes)
	assert.Equal(t, []Warning{
		{Table: "activity_data", Row: 0, Column: "energy_burned", Value: "lots"},
		{Table: "activity_data", Row: 0, Column: "stand_hours", Value: "NaN"},
	}, report.Warnings)
}

func TestBuildExerciseTimes(t *testing.T) {
	recs := []healthexport.Record{
		rec(healthexport.KindWorkoutEvent, map[string]string{
			"type":         "HKWorkoutEventTypePause",
			"date":         "2023-01-02 23:50:00 -0800",
			"duration":     "1.5",
			"durationUnit": "min",
		}),
		rec(healthexport.KindWorkoutEvent, map[string]string{"type": "x", "date": "1990-06-01 10:00:00 +0000"}),
	}
	rows, report := BuildExerciseTimes(recs, testStamp)

	require.Len(t, rows, 1)
	assert.Equal(t, 1, report.Dropped)
	// The calendar date follows the timestamp's own offset.
	assert.Equal(t, day(2023, 1, 2), rows[0].Day())
	assert.Equal(t, "HKWorkoutEventTypePause", rows[0].ExerciseType)
	assert.Equal(t, 1.5, rows[0].Duration)
	assert.Equal(t, "min", rows[0].DurationUnit)
}

func workoutAttrs(overrides map[string]string) map[string]string {
	attrs := map[string]string{
		"workoutActivityType":   "HKWorkoutActivityTypeRunning",
		"duration":              "31.5",
		"durationUnit":          "min",
		"totalDistance":         "5.02",
		"totalDistanceUnit":     "km",
		"totalEnergyBurned":     "312.4",
		"totalEnergyBurnedUnit": "kcal",
		"sourceName":            "Watch",
		"sourceVersion":         "9.1",
		"device":                "<<HKDevice>, name:Apple Watch, model:Watch>",
		"creationDate":          "2023-01-02 07:45:00 -0800",
		"startDate":             "2023-01-02 07:12:00 -0800",
		"endDate":               "2023-01-02 07:43:30 -0800",
	}
	for k, v := range overrides {
		attrs[k] = v
	}
	return attrs
}

func TestBuildWorkouts(t *testing.T) {
	input := workoutAttrs(nil)
	rows, report := BuildWorkouts([]healthexport.Record{rec(healthexport.KindWorkout, input)}, testStamp)

	require.Len(t, rows, 1)
	assert.Zero(t, report.Dropped)
	w := rows[0]
	assert.Equal(t, day(2023, 1, 2), w.Day())
	assert.Equal(t, "Running", w.Activity)
	assert.Equal(t, 31.5, w.Duration)
	assert.Equal(t, 5.02, w.TotalDistance)
	assert.Equal(t, 312.4, w.TotalEnergyBurned)
	assert.Equal(t, models.DeviceWearable, w.DeviceCategory)
	assert.Equal(t, "2023-01-02T07:12:00-08:00", w.StartDate.Format(time.RFC3339))
	assert.Equal(t, "2023-01-02T07:43:30-08:00", w.EndDate.Format(time.RFC3339))

	// The input record is not touched by normalisation.
	assert.Equal(t, "HKWorkoutActivityTypeRunning", input["workoutActivityType"])
}

func TestBuildWorkoutsSentinelChecksEachTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
	}{
		{"creation before sentinel", map[string]string{"creationDate": "1999-12-31 10:00:00 -0800"}},
		{"start before sentinel", map[string]string{"startDate": "1970-01-01 00:00:00 +0000"}},
		{"end before sentinel", map[string]string{"endDate": "1999-01-01 00:00:00 +0000"}},
		{"missing end", map[string]string{"endDate": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, report := BuildWorkouts([]healthexport.Record{
				rec(healthexport.KindWorkout, workoutAttrs(tt.override)),
			}, testStamp)
			assert.Empty(t, rows)
			assert.Equal(t, 1, report.Dropped)
		})
	}
}

func TestBuildWorkoutsSentinelUsesCalendarDate(t *testing.T) {
	rows, report := BuildWorkouts([]healthexport.Record{
		rec(healthexport.KindWorkout, workoutAttrs(map[string]string{
			"creationDate": "2000-01-01 00:30:00 +0100",
			"startDate":    "2000-01-01 00:30:00 +0100",
			"endDate":      "2000-01-01 00:30:00 +0100",
		})),
	}, testStamp)

	require.Len(t, rows, 1)
	assert.Zero(t, report.Dropped)
	assert.Equal(t, day(2000, 1, 1), rows[0].Day())
}

func TestOutOfRangeIntegerBecomesZeroWithWarning(t *testing.T) {
	rows, report := BuildActivitySummaries([]healthexport.Record{
		rec(healthexport.KindActivitySummary, map[string]string{
			"dateComponents":        "2023-01-02",
			"appleStandHours":       "1e20",
			"appleExerciseTimeGoal": "-3e10",
			"appleExerciseTime":     "42.9",
		}),
	}, testStamp)

	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].StandHours)
	assert.Zero(t, rows[0].ExerciseMinutesGoal)
	assert.Equal(t, 42, rows[0].ExerciseMinutes)
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, Warning{Table: "activity_data", Row: 0, Column: "exercise_minutes_goal", Value: "-3e10"}, report.Warnings[0])
	assert.Equal(t, Warning{Table: "activity_data", Row: 0, Column: "stand_hours", Value: "1e20"}, report.Warnings[1])
}

func TestDeviceCategory(t *testing.T) {
	assert.Equal(t, models.DeviceWearable, DeviceCategory("Apple Watch Series 6"))
	assert.Equal(t, models.DevicePhone, DeviceCategory("iPhone 12"))
	assert.Equal(t, models.DevicePhone, DeviceCategory(""))
}

func TestActivityName(t *testing.T) {
	assert.Equal(t, "Cycling", ActivityName("HKWorkoutActivityTypeCycling"))
	assert.Equal(t, "Yoga", ActivityName("Yoga"))
	assert.Equal(t, "", ActivityName(""))
}

func TestBuildFromFixtureIsDeterministic(t *testing.T) {
	f, err := os.Open("../healthexport/testdata/export.xml")
	require.NoError(t, err)
	defer f.Close()
	batch, err := healthexport.ExtractAll(f)
	require.NoError(t, err)

	first := Build(batch, testStamp)
	second := Build(batch, testStamp)
	assert.Equal(t, first, second)

	assert.Len(t, first.ActivitySummaries, 2)
	assert.Len(t, first.ExerciseTimes, 2)
	// The walking workout has a 1999 creation date.
	require.Len(t, first.Workouts, 1)
	assert.Equal(t, "Running", first.Workouts[0].Activity)
	assert.Equal(t, 2, first.Dropped())
	assert.Empty(t, first.Warnings())
}
