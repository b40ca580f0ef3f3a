// Package healthexport reads Apple Health export archives.
//
// An export is a zip container holding apple_health_export/export.xml. The
// XML document is read in a single forward pass; every recognised element is
// emitted as a flat attribute record and nothing else is retained.
package healthexport

// Kind identifies a recognised export element.
type Kind int

const (
	KindActivitySummary Kind = iota + 1
	KindWorkoutEvent
	KindWorkout
)

// Element names as they appear in export.xml.
const (
	ElementActivitySummary = "ActivitySummary"
	ElementWorkoutEvent    = "WorkoutEvent"
	ElementWorkout         = "Workout"
)

func (k Kind) String() string {
	switch k {
	case KindActivitySummary:
		return ElementActivitySummary
	case KindWorkoutEvent:
		return ElementWorkoutEvent
	case KindWorkout:
		return ElementWorkout
	default:
		return "Unknown"
	}
}

// Attribute keys copied verbatim from each element. Downstream columns are
// named after these, so spelling and case matter.
var (
	ActivitySummaryAttrs = []string{
		"dateComponents",
		"activeEnergyBurned",
		"activeEnergyBurnedGoal",
		"activeEnergyBurnedUnit",
		"appleExerciseTime",
		"appleExerciseTimeGoal",
		"appleStandHours",
		"appleStandHoursGoal",
	}

	WorkoutEventAttrs = []string{
		"type",
		"date",
		"duration",
		"durationUnit",
	}

	WorkoutAttrs = []string{
		"workoutActivityType",
		"duration",
		"durationUnit",
		"totalDistance",
		"totalDistanceUnit",
		"totalEnergyBurned",
		"totalEnergyBurnedUnit",
		"sourceName",
		"sourceVersion",
		"device",
		"creationDate",
		"startDate",
		"endDate",
	}
)

var recognised = map[string]struct {
	kind  Kind
	attrs map[string]struct{}
}{
	ElementActivitySummary: {KindActivitySummary, keySet(ActivitySummaryAttrs)},
	ElementWorkoutEvent:    {KindWorkoutEvent, keySet(WorkoutEventAttrs)},
	ElementWorkout:         {KindWorkout, keySet(WorkoutAttrs)},
}

func keySet(keys []string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// Record is the raw attribute mapping of one recognised element. Values are
// kept as text; typing happens in the transform package.
type Record struct {
	Kind  Kind
	Attrs map[string]string
}

// Get returns the attribute value, or "" when the element did not carry it.
func (r Record) Get(key string) string {
	return r.Attrs[key]
}

// Batch holds the three record streams of one export, each in document order.
type Batch struct {
	ActivitySummaries []Record
	WorkoutEvents     []Record
	Workouts          []Record
}

// Len returns the total number of records in the batch.
func (b *Batch) Len() int {
	return len(b.ActivitySummaries) + len(b.WorkoutEvents) + len(b.Workouts)
}

func (b *Batch) add(rec Record) {
	switch rec.Kind {
	case KindActivitySummary:
		b.ActivitySummaries = append(b.ActivitySummaries, rec)
	case KindWorkoutEvent:
		b.WorkoutEvents = append(b.WorkoutEvents, rec)
	case KindWorkout:
		b.Workouts = append(b.Workouts, rec)
	}
}
