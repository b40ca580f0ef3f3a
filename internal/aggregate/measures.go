package aggregate

import (
	"time"

	"healthtrends/internal/models"
)

// Pair is one row's actual and goal value for a family.
type Pair struct {
	Actual float64
	Goal   float64
}

// Columns names the actual and goal columns of a family.
type Columns struct {
	Actual string
	Goal   string
}

// Extractor reads one family's pair from a row of type T.
type Extractor[T any] struct {
	Columns
	Value func(T) Pair
}

// MeasureSet describes how a row type feeds the engine.
type MeasureSet[T any] struct {
	Date     func(T) time.Time
	Measures map[Family]Extractor[T]
}

// Sample is one dated row reduced to its family pairs.
type Sample struct {
	Date   time.Time
	Values map[Family]Pair
}

// Series is a row set ready for aggregation.
type Series struct {
	Columns map[Family]Columns
	Samples []Sample
}

// Series converts rows into samples.
func (s MeasureSet[T]) Series(rows []T) Series {
	cols := make(map[Family]Columns, len(s.Measures))
	for f, m := range s.Measures {
		cols[f] = m.Columns
	}
	samples := make([]Sample, 0, len(rows))
	for _, row := range rows {
		values := make(map[Family]Pair, len(s.Measures))
		for f, m := range s.Measures {
			values[f] = m.Value(row)
		}
		samples = append(samples, Sample{Date: s.Date(row), Values: values})
	}
	return Series{Columns: cols, Samples: samples}
}

// ActivityMeasures maps activity summaries to the move, exercise and stand rings.
var ActivityMeasures = MeasureSet[models.ActivitySummary]{
	Date: models.ActivitySummary.Day,
	Measures: map[Family]Extractor[models.ActivitySummary]{
		Move: {
			Columns: Columns{Actual: "energy_burned", Goal: "energy_burned_goal"},
			Value: func(a models.ActivitySummary) Pair {
				return Pair{Actual: a.EnergyBurned, Goal: a.EnergyBurnedGoal}
			},
		},
		Exercise: {
			Columns: Columns{Actual: "exercise_minutes", Goal: "exercise_minutes_goal"},
			Value: func(a models.ActivitySummary) Pair {
				return Pair{Actual: float64(a.ExerciseMinutes), Goal: float64(a.ExerciseMinutesGoal)}
			},
		},
		Stand: {
			Columns: Columns{Actual: "stand_hours", Goal: "stand_hours_goal"},
			Value: func(a models.ActivitySummary) Pair {
				return Pair{Actual: float64(a.StandHours), Goal: float64(a.StandHoursGoal)}
			},
		},
	},
}

// WorkoutMeasures covers workout energy and duration. Workouts carry no
// goals, so every variance percentage is undefined, and there is no stand
// family.
var WorkoutMeasures = MeasureSet[models.Workout]{
	Date: models.Workout.Day,
	Measures: map[Family]Extractor[models.Workout]{
		Move: {
			Columns: Columns{Actual: "total_energy_burned", Goal: "total_energy_burned_goal"},
			Value: func(w models.Workout) Pair {
				return Pair{Actual: w.TotalEnergyBurned}
			},
		},
		Exercise: {
			Columns: Columns{Actual: "duration", Goal: "duration_goal"},
			Value: func(w models.Workout) Pair {
				return Pair{Actual: w.Duration}
			},
		},
	},
}
