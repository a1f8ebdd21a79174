package scoreboard

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Dosada05/score-control/models"
)

// Hub maintains the set of connected real-time subscribers per match id
// and fans out state-changed events to them. It owns only the subscriber
// sets, never the match state itself.
//
// Subscribe and Unsubscribe are synchronous: once Subscribe returns, the
// client is publish-visible. Publishes for one match are serialized by the
// store's per-match commit section, so each subscriber's queue sees events
// in exactly the order the mutations committed.
type Hub struct {
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]bool),
		logger: logger,
	}
}

// Subscribe registers the client under its match id.
func (h *Hub) Subscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[client.MatchID]; !ok {
		h.rooms[client.MatchID] = make(map[*Client]bool)
	}
	h.rooms[client.MatchID][client] = true
	h.logger.Info("subscriber registered",
		slog.String("match_id", client.MatchID),
		slog.Int("subscribers", len(h.rooms[client.MatchID])))
}

// Unsubscribe removes the client and closes its send queue. Calling it for
// an already-removed client is a harmless no-op, so transport teardown may
// invoke it from several paths.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.MatchID]
	if !ok {
		return
	}
	if _, registered := room[client]; !registered {
		return
	}
	client.closeSend()
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.MatchID)
	}
	h.logger.Info("subscriber unregistered",
		slog.String("match_id", client.MatchID),
		slog.Int("subscribers", len(room)))
}

// Publish sends the event to every subscriber of the match. Delivery is
// fire-and-forget per client: a subscriber whose send buffer is full is
// dropped from the room so it can never stall the others.
func (h *Hub) Publish(matchID string, event models.MatchEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal match event",
			slog.String("match_id", matchID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	room := h.rooms[matchID]
	var dead []*Client
	for client := range room {
		if !client.TrySend(payload) {
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dead {
		h.logger.Warn("dropping unresponsive subscriber",
			slog.String("match_id", matchID))
		h.Unsubscribe(client)
	}
}

// SubscriberCount reports the current number of subscribers for a match.
func (h *Hub) SubscriberCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}
