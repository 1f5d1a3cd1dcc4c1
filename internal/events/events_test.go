package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpPublisher(t *testing.T) {
	t.Parallel()

	var p NoOpPublisher
	require.NoError(t, p.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r"}))
	require.NoError(t, p.Close())
}

func TestRunCompletedJSONShape(t *testing.T) {
	t.Parallel()

	event := RunCompleted{
		RunID:      "run-42",
		CrawlScope: "cycle-7",
		Dispatched: 100,
		Fetched:    97,
		Failed:     3,
		FinishedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-42", decoded["run_id"])
	assert.Equal(t, "cycle-7", decoded["crawl_scope"])
	assert.EqualValues(t, 100, decoded["dispatched"])
	assert.EqualValues(t, 97, decoded["fetched"])
	assert.EqualValues(t, 3, decoded["failed"])
}

func TestMockPublisherRecordsCalls(t *testing.T) {
	t.Parallel()

	m := new(MockPublisher)
	event := RunCompleted{RunID: "run-1"}
	m.On("PublishRunCompleted", context.Background(), event).Return(nil)
	m.On("Close").Return(nil)

	require.NoError(t, m.PublishRunCompleted(context.Background(), event))
	require.NoError(t, m.Close())
	m.AssertExpectations(t)
}
