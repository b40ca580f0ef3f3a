package aggregate

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DateLayout is how bucket keys appear in summaries.
const DateLayout = "2006-01-02"

// Summary column names shared by every family.
const (
	ColumnVarianceAbs = "variance_abs"
	ColumnVariancePct = "variance_pct"
)

// Field is one entry of a summary schema.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Row is one selected bucket.
type Row struct {
	Date        time.Time
	Actual      float64
	Goal        float64
	VarianceAbs float64
	VariancePct Ratio
}

// Summary is a tabular payload with an explicit schema. Rows encode as
// objects keyed by the schema's field names.
type Summary struct {
	Granularity Granularity
	Family      Family
	Columns     Columns
	Rows        []Row
}

// Fields returns the schema of s in column order.
func (s Summary) Fields() []Field {
	return []Field{
		{Name: s.Granularity.String(), Type: "date"},
		{Name: s.Columns.Actual, Type: "number"},
		{Name: s.Columns.Goal, Type: "number"},
		{Name: ColumnVarianceAbs, Type: "number"},
		{Name: ColumnVariancePct, Type: "number"},
	}
}

// Query selects a view over one user's rows.
type Query struct {
	Granularity Granularity
	Family      Family
	Lookback    int
	Current     bool
}

// ParseQuery validates raw query parameters.
func ParseQuery(granularity, family string, lookback int, current bool) (Query, error) {
	g, err := ParseGranularity(granularity)
	if err != nil {
		return Query{}, err
	}
	f, err := ParseFamily(family)
	if err != nil {
		return Query{}, err
	}
	if lookback < 0 {
		lookback = 0
	}
	return Query{Granularity: g, Family: f, Lookback: lookback, Current: current}, nil
}

// Apply aggregates series and selects the view q describes.
func (q Query) Apply(series Series) (Summary, error) {
	if _, ok := series.Columns[q.Family]; !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownFamily, q.Family)
	}
	table := Aggregate(series, q.Granularity)
	if q.Current {
		return SelectCurrent(table, q.Family)
	}
	return Select(table, q.Family, q.Lookback)
}

// Select projects family f and returns the last n buckets in ascending order.
// n is clamped to the number of buckets.
func Select(t Table, f Family, n int) (Summary, error) {
	cols, ok := t.Columns[f]
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
	n = min(max(n, 0), len(t.Buckets))
	return project(t, f, cols, t.Buckets[len(t.Buckets)-n:]), nil
}

// SelectCurrent returns only the bucket with the greatest key. An empty
// table yields an empty summary.
func SelectCurrent(t Table, f Family) (Summary, error) {
	cols, ok := t.Columns[f]
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
	if len(t.Buckets) == 0 {
		return project(t, f, cols, nil), nil
	}
	latest := t.Buckets[0].Key
	for _, b := range t.Buckets[1:] {
		if b.Key.After(latest) {
			latest = b.Key
		}
	}
	var current []Bucket
	for _, b := range t.Buckets {
		if b.Key.Equal(latest) {
			current = append(current, b)
		}
	}
	return project(t, f, cols, current), nil
}

func project(t Table, f Family, cols Columns, buckets []Bucket) Summary {
	rows := make([]Row, 0, len(buckets))
	for _, b := range buckets {
		m := b.Measures[f]
		rows = append(rows, Row{
			Date:        b.Key,
			Actual:      m.Actual,
			Goal:        m.Goal,
			VarianceAbs: m.VarianceAbs,
			VariancePct: m.VariancePct,
		})
	}
	return Summary{Granularity: t.Granularity, Family: f, Columns: cols, Rows: rows}
}

type summarySchema struct {
	Fields     []Field  `json:"fields"`
	PrimaryKey []string `json:"primaryKey"`
}

type summaryJSON struct {
	Granularity string                       `json:"granularity"`
	Family      string                       `json:"family"`
	Schema      summarySchema                `json:"schema"`
	Data        []map[string]json.RawMessage `json:"data"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	key := s.Granularity.String()
	out := summaryJSON{
		Granularity: key,
		Family:      s.Family.String(),
		Schema:      summarySchema{Fields: s.Fields(), PrimaryKey: []string{key}},
		Data:        make([]map[string]json.RawMessage, 0, len(s.Rows)),
	}
	for _, r := range s.Rows {
		pct, err := r.VariancePct.MarshalJSON()
		if err != nil {
			return nil, err
		}
		out.Data = append(out.Data, map[string]json.RawMessage{
			key:               quote(r.Date.Format(DateLayout)),
			s.Columns.Actual:  number(r.Actual),
			s.Columns.Goal:    number(r.Goal),
			ColumnVarianceAbs: number(r.VarianceAbs),
			ColumnVariancePct: pct,
		})
	}
	return json.Marshal(out)
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	var in summaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	g, err := ParseGranularity(in.Granularity)
	if err != nil {
		return err
	}
	f, err := ParseFamily(in.Family)
	if err != nil {
		return err
	}
	if len(in.Schema.Fields) != 5 {
		return fmt.Errorf("summary schema has %d fields, want 5", len(in.Schema.Fields))
	}
	cols := Columns{Actual: in.Schema.Fields[1].Name, Goal: in.Schema.Fields[2].Name}
	key := g.String()

	rows := make([]Row, 0, len(in.Data))
	for _, obj := range in.Data {
		var r Row
		var date string
		if err := json.Unmarshal(obj[key], &date); err != nil {
			return fmt.Errorf("summary row date: %w", err)
		}
		if r.Date, err = time.Parse(DateLayout, date); err != nil {
			return err
		}
		for name, dst := range map[string]*float64{
			cols.Actual:       &r.Actual,
			cols.Goal:         &r.Goal,
			ColumnVarianceAbs: &r.VarianceAbs,
		} {
			if err := json.Unmarshal(obj[name], dst); err != nil {
				return fmt.Errorf("summary row %s: %w", name, err)
			}
		}
		if err := r.VariancePct.UnmarshalJSON(obj[ColumnVariancePct]); err != nil {
			return err
		}
		rows = append(rows, r)
	}
	*s = Summary{Granularity: g, Family: f, Columns: cols, Rows: rows}
	return nil
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func number(f float64) json.RawMessage {
	b, _ := json.Marshal(f)
	return b
}
