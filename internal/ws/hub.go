package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub fans station availability snapshots out to subscribed clients.
type Hub struct {
	mu           sync.RWMutex
	subscribers  map[*Subscriber]struct{}
	logger       *zap.Logger
	pingInterval time.Duration
}

// NewHub builds the broadcast hub.
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		subscribers:  make(map[*Subscriber]struct{}),
		logger:       logger,
		pingInterval: pingInterval,
	}
}

// Add registers a subscriber.
func (h *Hub) Add(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
}

// Remove drops a subscriber.
func (h *Hub) Remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sub)
}

// Broadcast marshals the payload once and sends it to every subscriber. Slow
// subscribers miss snapshots rather than block the caller.
func (h *Hub) Broadcast(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("failed to marshal broadcast payload", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		sub.Send(data)
	}
}

// Run begins the ping loop that keeps connections alive.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.mu.RLock()
			for sub := range h.subscribers {
				_ = sub.Ping()
			}
			h.mu.RUnlock()
		}
	}
}
