package events

import (
	"errors"
	"testing"

	"github.com/princekumarofficial/asset-service/internal/ingest"
	"github.com/princekumarofficial/asset-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	events []*types.Event
}

func (h *recordingHub) Broadcast(event *types.Event) {
	h.events = append(h.events, event)
}

func TestBatchPublisher(t *testing.T) {
	hub := &recordingHub{}
	p := NewBatchPublisher(hub, "batch-1")

	p.BatchStarted(2)
	p.RowDone(ingest.RowOutcome{Row: 1, Name: "a", AssetID: 7})
	p.RowDone(ingest.RowOutcome{Row: 2, Name: "b", Err: errors.New("image not found")})
	p.BatchFinished(&ingest.Summary{Total: 2, Successful: 1, Failed: 1})

	require.Len(t, hub.events, 4)
	for _, e := range hub.events {
		assert.Equal(t, "batch-1", e.BatchID)
	}

	assert.Equal(t, types.EventBatchStarted, hub.events[0].Type)
	assert.Equal(t, &types.BatchStartedEvent{Total: 2}, hub.events[0].Data)

	assert.Equal(t, &types.RowProcessedEvent{Row: 1, Name: "a", Success: true, AssetID: 7}, hub.events[1].Data)
	assert.Equal(t, &types.RowProcessedEvent{Row: 2, Name: "b", Error: "image not found"}, hub.events[2].Data)

	assert.Equal(t, types.EventBatchFinished, hub.events[3].Type)
	assert.Equal(t, &types.BatchFinishedEvent{Total: 2, Successful: 1, Failed: 1}, hub.events[3].Data)
}
