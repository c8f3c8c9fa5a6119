package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/elo-ledger/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the CORS layer.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeGroup upgrades the connection and subscribes it to the group's
// live update room.
func (h *WebSocketHandler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlParamInt(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.GroupRoom(groupID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
