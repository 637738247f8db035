package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/asset-service/internal/types"
)

// Hub tracks websocket subscribers per ingestion batch and fans batch
// events out to them.
type Hub struct {
	// Subscribers keyed by batch ID
	batches map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *types.Event

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		batches:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *types.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			subs, ok := h.batches[client.batchID]
			if !ok {
				subs = make(map[*Client]struct{})
				h.batches[client.batchID] = subs
			}
			subs[client] = struct{}{}
			h.mu.Unlock()
			slog.Info("WebSocket client subscribed", slog.String("batch_id", client.batchID))

		case client := <-h.unregister:
			h.remove(client)

		case event := <-h.broadcast:
			h.deliver(event)

		case <-ctx.Done():
			h.mu.Lock()
			for batchID, subs := range h.batches {
				for client := range subs {
					close(client.send)
				}
				delete(h.batches, batchID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.batches[client.batchID]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	close(client.send)
	if len(subs) == 0 {
		delete(h.batches, client.batchID)
	}
	slog.Info("WebSocket client unsubscribed", slog.String("batch_id", client.batchID))
}

// deliver runs on the hub goroutine. Slow subscribers are dropped.
func (h *Hub) deliver(event *types.Event) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.batches[event.BatchID] {
		if err := client.SendEvent(event); err != nil {
			slog.Warn("Dropping slow WebSocket subscriber",
				slog.String("batch_id", event.BatchID),
				slog.String("error", err.Error()))
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.remove(client)
	}
}

// RegisterClient registers a new client. It reports false once the hub
// has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues event for the subscribers of its batch. It never
// blocks the ingestion driver.
func (h *Hub) Broadcast(event *types.Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.String("batch_id", event.BatchID))
	}
}

// SubscriberCount returns the number of clients watching a batch
func (h *Hub) SubscriberCount(batchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.batches[batchID])
}
