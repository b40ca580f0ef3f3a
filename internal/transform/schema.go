// Package transform turns extracted export records into typed table rows.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"healthtrends/internal/healthexport"
)

// Sentinel is the cut-off for placeholder dates found in exports. Rows whose
// primary date falls before it are dropped.
var Sentinel = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ColumnType is the declared type of a table column.
type ColumnType int

const (
	Text ColumnType = iota
	Real
	Integer
	Date
	Timestamp
)

func (t ColumnType) String() string {
	switch t {
	case Real:
		return "real"
	case Integer:
		return "integer"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// Column maps one export attribute to one typed table column.
type Column struct {
	Name string
	Attr string
	Type ColumnType
}

// Schema is the fixed column set of one output table.
type Schema struct {
	Table   string
	Columns []Column
	byName  map[string]Column
}

func newSchema(table string, cols ...Column) Schema {
	s := Schema{Table: table, Columns: cols, byName: make(map[string]Column, len(cols))}
	for _, c := range cols {
		s.byName[c.Name] = c
	}
	return s
}

// Column looks up a declared column. Asking for an undeclared one is a
// programming error.
func (s Schema) Column(name string) Column {
	c, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("transform: %s has no column %q", s.Table, name))
	}
	return c
}

var (
	ActivitySummarySchema = newSchema("activity_data",
		Column{"date", "dateComponents", Date},
		Column{"energy_burned", "activeEnergyBurned", Real},
		Column{"energy_burned_goal", "activeEnergyBurnedGoal", Real},
		Column{"energy_burned_unit", "activeEnergyBurnedUnit", Text},
		Column{"exercise_minutes", "appleExerciseTime", Integer},
		Column{"exercise_minutes_goal", "appleExerciseTimeGoal", Integer},
		Column{"stand_hours", "appleStandHours", Integer},
		Column{"stand_hours_goal", "appleStandHoursGoal", Integer},
	)

	ExerciseTimeSchema = newSchema("exercise_time",
		Column{"date", "date", Date},
		Column{"exercise_type", "type", Text},
		Column{"duration", "duration", Real},
		Column{"duration_unit", "durationUnit", Text},
	)

	WorkoutSchema = newSchema("workout_data",
		Column{"activity_type", "workoutActivityType", Text},
		Column{"duration", "duration", Real},
		Column{"duration_unit", "durationUnit", Text},
		Column{"total_distance", "totalDistance", Real},
		Column{"total_distance_unit", "totalDistanceUnit", Text},
		Column{"total_energy_burned", "totalEnergyBurned", Real},
		Column{"total_energy_burned_unit", "totalEnergyBurnedUnit", Text},
		Column{"source_name", "sourceName", Text},
		Column{"source_version", "sourceVersion", Text},
		Column{"device", "device", Text},
		Column{"creation_date", "creationDate", Timestamp},
		Column{"start_date", "startDate", Timestamp},
		Column{"end_date", "endDate", Timestamp},
	)
)

// Warning records a cell that could not be coerced to its declared type.
// The cell is stored as zero and the run continues.
type Warning struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Report summarises one table build.
type Report struct {
	Table    string    `json:"table"`
	Input    int       `json:"input"`
	Kept     int       `json:"kept"`
	Dropped  int       `json:"dropped"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// cells reads typed values for one record against a schema.
type cells struct {
	schema Schema
	rec    healthexport.Record
	row    int
	report *Report
}

func (c cells) raw(name string) string {
	return strings.TrimSpace(c.rec.Get(c.schema.Column(name).Attr))
}

func (c cells) text(name string) string {
	return c.raw(name)
}

func (c cells) real(name string) float64 {
	v := c.raw(name)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.warn(name, v)
		return 0
	}
	return f
}

// integer truncates the parsed value. Values outside the postgres integer
// range are stored as zero with a warning.
func (c cells) integer(name string) int {
	v := c.raw(name)
	f := c.real(name)
	if f < math.MinInt32 || f > math.MaxInt32 {
		c.warn(name, v)
		return 0
	}
	return int(f)
}

func (c cells) warn(name, value string) {
	c.report.Warnings = append(c.report.Warnings, Warning{
		Table: c.schema.Table, Row: c.row, Column: name, Value: value,
	})
}

// date parses a calendar date column. ok is false for missing or unparsable
// values, which the caller treats like a sentinel failure.
func (c cells) date(name string) (time.Time, bool) {
	t, ok := parseTime(c.raw(name))
	if !ok {
		return time.Time{}, false
	}
	return calendarDate(t), true
}

func (c cells) timestamp(name string) (time.Time, bool) {
	return parseTime(c.raw(name))
}

var timeLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// calendarDate keeps the wall-clock date of t, dropping time and zone.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// beforeSentinel compares the wall-clock date of t, so every table applies
// the same calendar rule regardless of the timestamp's zone.
func beforeSentinel(t time.Time) bool {
	return calendarDate(t).Before(Sentinel)
}
