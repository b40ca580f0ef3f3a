package aggregate

import (
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Ratio is a variance percentage that may be undefined. It encodes as JSON
// null when Valid is false.
type Ratio struct {
	Value float64
	Valid bool
}

// Undefined is the ratio reported for a zero goal.
var Undefined = Ratio{}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined
		return nil
	}
	if err := json.Unmarshal(data, &r.Value); err != nil {
		return err
	}
	r.Valid = true
	return nil
}

// Measure is one family's totals within a bucket.
type Measure struct {
	Actual      float64
	Goal        float64
	VarianceAbs float64
	VariancePct Ratio
}

func newMeasure(actual, goal float64) Measure {
	m := Measure{Actual: actual, Goal: goal, VarianceAbs: actual - goal}
	if goal != 0 {
		m.VariancePct = Ratio{Value: m.VarianceAbs / goal, Valid: true}
	}
	return m
}

// Bucket is one aggregated row.
type Bucket struct {
	Key      time.Time
	Measures map[Family]Measure
}

// Table is the ascending bucket sequence for one series.
type Table struct {
	Granularity Granularity
	Columns     map[Family]Columns
	Buckets     []Bucket
}

// Aggregate groups samples into buckets of width g, summing actual and goal
// values per family. Buckets are returned in ascending key order.
func Aggregate(series Series, g Granularity) Table {
	sums := make(map[time.Time]map[Family]Pair)
	for _, s := range series.Samples {
		key := g.Key(s.Date)
		acc, ok := sums[key]
		if !ok {
			acc = make(map[Family]Pair, len(series.Columns))
			sums[key] = acc
		}
		for f, p := range s.Values {
			cur := acc[f]
			cur.Actual += p.Actual
			cur.Goal += p.Goal
			acc[f] = cur
		}
	}

	keys := make([]time.Time, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	buckets := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		measures := make(map[Family]Measure, len(series.Columns))
		for f := range series.Columns {
			p := sums[k][f]
			measures[f] = newMeasure(p.Actual, p.Goal)
		}
		buckets = append(buckets, Bucket{Key: k, Measures: measures})
	}
	return Table{Granularity: g, Columns: series.Columns, Buckets: buckets}
}
