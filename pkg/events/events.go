// Package events defines the notifications published around artifact generation.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the Kafka topic carrying every generation event.
const Topic = "flowforge.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	GenerationCompletedEvent EventType = "generation.completed"
	GenerationFailedEvent    EventType = "generation.failed"
	ArtifactsSavedEvent      EventType = "artifacts.saved"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// GenerationCompleted is published after a successful generation.
type GenerationCompleted struct {
	BaseEvent

	FilesCount     int     `json:"files_count"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Enriched       bool    `json:"enriched"`
}

func (g GenerationCompleted) GetType() EventType {
	return GenerationCompletedEvent
}

// GenerationFailed is published when a generation request is rejected or aborted.
type GenerationFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (g GenerationFailed) GetType() EventType {
	return GenerationFailedEvent
}

// ArtifactsSaved is published after a file set reaches its store.
type ArtifactsSaved struct {
	BaseEvent

	Location   string `json:"location"`
	FilesCount int    `json:"files_count"`
}

func (a ArtifactsSaved) GetType() EventType {
	return ArtifactsSavedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// NewEvent returns an empty event value of the given type for decoding, or nil when the type is
// unknown.
func NewEvent(eventType EventType) any {
	switch eventType {
	case GenerationCompletedEvent:
		return &GenerationCompleted{}
	case GenerationFailedEvent:
		return &GenerationFailed{}
	case ArtifactsSavedEvent:
		return &ArtifactsSaved{}
	default:
		return nil
	}
}
