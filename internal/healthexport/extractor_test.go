package healthexport

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Open("testdata/export.xml")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExtractAllFixture(t *testing.T) {
	batch, err := ExtractAll(openFixture(t))
	require.NoError(t, err)

	require.Len(t, batch.ActivitySummaries, 3)
	require.Len(t, batch.WorkoutEvents, 2)
	require.Len(t, batch.Workouts, 2)
	assert.Equal(t, 7, batch.Len())

	dates := []string{}
	for _, rec := range batch.ActivitySummaries {
		dates = append(dates, rec.Get("dateComponents"))
	}
	assert.Equal(t, []string{"2023-01-01", "2023-01-02", "1999-12-31"}, dates)

	run := batch.Workouts[0]
	assert.Equal(t, KindWorkout, run.Kind)
	assert.Equal(t, "HKWorkoutActivityTypeRunning", run.Get("workoutActivityType"))
	assert.Contains(t, run.Get("device"), "name:Apple Watch")
	assert.Equal(t, "2023-01-02 07:12:00 -0800", run.Get("startDate"))

	pause := batch.WorkoutEvents[0]
	assert.Equal(t, "HKWorkoutEventTypePause", pause.Get("type"))
	assert.Equal(t, "1.5", pause.Get("duration"))
}

func TestExtractorSkipsUnrecognisedElementsAndAttributes(t *testing.T) {
	doc := `<HealthData>
<Record type="HKQuantityTypeIdentifierHeartRate" value="70"/>
<ActivitySummary dateComponents="2023-02-01" activeEnergyBurned="1" extra="ignored"/>
<Correlation type="x"><Record type="y"/></Correlation>
</HealthData>`

	ex := NewExtractor(strings.NewReader(doc))
	rec, err := ex.Next()
	require.NoError(t, err)
	assert.Equal(t, KindActivitySummary, rec.Kind)
	assert.Equal(t, map[string]string{
		"dateComponents":     "2023-02-01",
		"activeEnergyBurned": "1",
	}, rec.Attrs)

	_, err = ex.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = ex.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestExtractorMissingAttributesAreAbsentNotFabricated(t *testing.T) {
	batch, err := ExtractAll(strings.NewReader(`<HealthData><Workout duration="10"/></HealthData>`))
	require.NoError(t, err)
	require.Len(t, batch.Workouts, 1)
	assert.Equal(t, "", batch.Workouts[0].Get("device"))
	assert.Len(t, batch.Workouts[0].Attrs, 1)
}

func TestExtractorMalformedXML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"mismatched tag", `<HealthData><ActivitySummary dateComponents="2023-01-01"></HealthData>`},
		{"truncated document", `<HealthData><ActivitySummary dateComponents="2023-01-01"/>`},
		{"bad attribute", `<HealthData><Workout duration=10/></HealthData>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := ExtractAll(strings.NewReader(tt.doc))
			assert.Nil(t, batch)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Contains(t, perr.Error(), "parse export.xml")
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ActivitySummary", KindActivitySummary.String())
	assert.Equal(t, "WorkoutEvent", KindWorkoutEvent.String())
	assert.Equal(t, "Workout", KindWorkout.String())
	assert.Equal(t, "Unknown", Kind(0).String())
}
