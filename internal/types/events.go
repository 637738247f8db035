package types

import "time"

// EventType represents the type of a batch progress event
type EventType string

const (
	EventBatchStarted  EventType = "batch.started"
	EventRowProcessed  EventType = "batch.row"
	EventBatchFinished EventType = "batch.finished"
)

// Event is the envelope sent to websocket subscribers of a batch
type Event struct {
	Type      EventType   `json:"type"`
	BatchID   string      `json:"batch_id"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type BatchStartedEvent struct {
	Total int `json:"total"`
}

// RowProcessedEvent reports the outcome of a single CSV row
type RowProcessedEvent struct {
	Row     int    `json:"row"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	AssetID int64  `json:"asset_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type BatchFinishedEvent struct {
	Total       int    `json:"total"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	Aborted     bool   `json:"aborted"`
	AbortReason string `json:"abort_reason,omitempty"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, batchID string, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		BatchID:   batchID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
