package services

import (
	"sync"
	"time"
)

// HackathonEvent is the public view of a lifecycle change streamed to
// dashboards. It carries no contact details.
type HackathonEvent struct {
	Type          EventType `json:"type"`
	HackathonID   string    `json:"hackathon_id"`
	HackathonName string    `json:"hackathon_name"`
	TeamName      string    `json:"team_name"`
	ProblemTitle  string    `json:"problem_title,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newHackathonEvent(e *NotificationEvent) HackathonEvent {
	return HackathonEvent{
		Type:          e.Type,
		HackathonID:   e.HackathonID,
		HackathonName: e.HackathonName,
		TeamName:      e.TeamName,
		ProblemTitle:  e.ProblemTitle,
		Reason:        e.Reason,
		OccurredAt:    e.OccurredAt,
	}
}

// SSEHub manages SSE client connections and event broadcasting
type SSEHub struct {
	clients map[string]chan HackathonEvent
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan HackathonEvent),
	}
}

// Subscribe registers a client and returns its buffered event channel.
func (h *SSEHub) Subscribe(clientID string) <-chan HackathonEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old)
	}
	ch := make(chan HackathonEvent, 64)
	h.clients[clientID] = ch
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event to all connected clients. Clients whose buffer
// is full miss the event.
func (h *SSEHub) Publish(event HackathonEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
