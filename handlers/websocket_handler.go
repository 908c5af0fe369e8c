package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/raceday/live"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler принимает разрешённые Origin; "*" разрешает любой.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeWs subscribes the connection to live updates of one event.
// @Summary Live participation updates for an event (websocket)
// @Tags live
// @Param eventID path int true "Event ID"
// @Router /ws/events/{eventID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}

	room := live.RoomForEvent(eventID)
	h.hub.Join(h.hub.NewClient(conn, room))
	h.logger.DebugContext(r.Context(), "Websocket client joined", slog.String("room", room))
}
