package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Dosada05/score-control/models"
	"github.com/Dosada05/score-control/scoreboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Trusted-LAN deployment: any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *scoreboard.Hub
	store  *scoreboard.Store
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewWebSocketHandler(hub *scoreboard.Hub, store *scoreboard.Store, clock clockwork.Clock, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, store: store, clock: clock, logger: logger}
}

// ServeWS upgrades the connection and subscribes it to the match's event
// stream. One full-state event is queued immediately after registration so
// a reconnecting client converges without a separate fetch. The snapshot
// is taken and queued inside the match's critical section, after the
// client is publish-visible, so a concurrent mutation either shows up in
// the snapshot or arrives as a later event — never ahead of it.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed",
			slog.String("match_id", matchID), slog.Any("error", err))
		return
	}

	client := scoreboard.NewClient(h.hub, conn, matchID)
	h.hub.Subscribe(client)

	go client.WritePump()
	go client.ReadPump()

	h.store.View(r.Context(), matchID, func(state models.MatchState) {
		initial := models.MatchEvent{
			Type:  models.EventState,
			State: state,
			TS:    h.clock.Now().UnixMilli(),
		}
		payload, err := json.Marshal(initial)
		if err != nil {
			h.logger.Error("failed to marshal initial state event",
				slog.String("match_id", matchID), slog.Any("error", err))
			return
		}
		client.TrySend(payload)
	})
}
