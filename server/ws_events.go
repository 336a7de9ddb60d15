package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tunedrop/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The route is admin-gated by the bearer token, which is a stronger
	// check than the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SubmissionEventsHandler streams live review events to the admin console
// over a WebSocket. Each status change arrives as one JSON message.
func (h *APIHandler) SubmissionEventsHandler(w http.ResponseWriter, r *http.Request) {
	admin, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	events, cancel := h.dispatcher.Subscribe()
	defer cancel()

	logger.Info("Admin event stream opened", logger.Int64("adminID", admin.ID))

	// Drain reads so close frames and pongs are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Info("Admin event stream closed",
					logger.Int64("adminID", admin.ID),
					logger.ErrorField(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
