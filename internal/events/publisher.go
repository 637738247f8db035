package events

import (
	"github.com/princekumarofficial/asset-service/internal/ingest"
	"github.com/princekumarofficial/asset-service/internal/types"
)

// Broadcaster delivers an event to the subscribers of its batch
type Broadcaster interface {
	Broadcast(event *types.Event)
}

// BatchPublisher turns ingestion progress of one batch into websocket
// events. It satisfies ingest.Observer.
type BatchPublisher struct {
	hub     Broadcaster
	batchID string
}

// NewBatchPublisher creates a publisher for batchID
func NewBatchPublisher(hub Broadcaster, batchID string) *BatchPublisher {
	return &BatchPublisher{
		hub:     hub,
		batchID: batchID,
	}
}

func (p *BatchPublisher) BatchStarted(total int) {
	p.hub.Broadcast(types.NewEvent(types.EventBatchStarted, p.batchID, &types.BatchStartedEvent{
		Total: total,
	}))
}

func (p *BatchPublisher) RowDone(outcome ingest.RowOutcome) {
	data := &types.RowProcessedEvent{
		Row:     outcome.Row,
		Name:    outcome.Name,
		Success: outcome.Err == nil,
		AssetID: outcome.AssetID,
	}
	if outcome.Err != nil {
		data.Error = outcome.Err.Error()
	}

	p.hub.Broadcast(types.NewEvent(types.EventRowProcessed, p.batchID, data))
}

func (p *BatchPublisher) BatchFinished(summary *ingest.Summary) {
	p.hub.Broadcast(types.NewEvent(types.EventBatchFinished, p.batchID, &types.BatchFinishedEvent{
		Total:       summary.Total,
		Successful:  summary.Successful,
		Failed:      summary.Failed,
		Aborted:     summary.Aborted,
		AbortReason: summary.AbortReason,
	}))
}

var _ ingest.Observer = (*BatchPublisher)(nil)
