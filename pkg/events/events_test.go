package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GenerationCompletedEvent, GenerationCompleted{}.GetType())
	assert.Equal(t, GenerationFailedEvent, GenerationFailed{}.GetType())
	assert.Equal(t, ArtifactsSavedEvent, ArtifactsSaved{}.GetType())
}

func TestNewBaseEvent(t *testing.T) {
	t.Parallel()

	first := NewBaseEvent(GenerationCompletedEvent, "wf-1")
	second := NewBaseEvent(GenerationCompletedEvent, "wf-1")

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "wf-1", first.WorkflowID)
	assert.Equal(t, GenerationCompletedEvent, first.Type)
	assert.False(t, first.Timestamp.IsZero())
	assert.NotNil(t, first.Metadata)
}

func TestGenerationCompleted_JSON(t *testing.T) {
	t.Parallel()

	event := GenerationCompleted{
		BaseEvent:      NewBaseEvent(GenerationCompletedEvent, "wf-1"),
		FilesCount:     7,
		ElapsedSeconds: 1.5,
		Enriched:       true,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"type":"generation.completed"`)
	assert.Contains(t, string(data), `"workflow_id":"wf-1"`)
	assert.Contains(t, string(data), `"files_count":7`)
	assert.Contains(t, string(data), `"enriched":true`)

	decoded, ok := NewEvent(GenerationCompletedEvent).(*GenerationCompleted)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, event.FilesCount, decoded.FilesCount)
	assert.InDelta(t, event.ElapsedSeconds, decoded.ElapsedSeconds, 0.0001)
	assert.Equal(t, event.ID, decoded.ID)
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	assert.IsType(t, &GenerationFailed{}, NewEvent(GenerationFailedEvent))
	assert.IsType(t, &ArtifactsSaved{}, NewEvent(ArtifactsSavedEvent))
	assert.Nil(t, NewEvent("workflow.triggered"))
}
