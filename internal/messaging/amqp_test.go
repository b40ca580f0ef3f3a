package messaging

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, RoutingIngestionCompleted, IngestionEvent{Status: "completed"}.RoutingKey())
	assert.Equal(t, RoutingIngestionFailed, IngestionEvent{Status: "failed", Error: "invalid archive"}.RoutingKey())
}

func TestIngestionEventJSON(t *testing.T) {
	event := IngestionEvent{
		JobID:        "4b1c",
		UserID:       3,
		Status:       "completed",
		ActivityRows: 2,
		DroppedRows:  1,
		OccurredAt:   time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "4b1c", decoded["job_id"])
	assert.Equal(t, 2.0, decoded["activity_rows"])
	assert.NotContains(t, decoded, "error")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishIngestion(IngestionEvent{}))
	assert.NoError(t, p.Close())
}
