package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards and the patient page are served from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and runs its read pump.
// Inbound messages are handed to the gateway; the write side is owned
// by the gateway's per-client writer.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err, "remote_addr", c.RealIP())
		return nil // Upgrade already wrote the HTTP error response.
	}

	if err := s.gateway.Register(conn); err != nil {
		slog.Warn("WebSocket registration rejected", "error", err)
		return nil
	}

	defer s.gateway.Unregister(conn)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket read error", "error", err)
			}
			return nil
		}
		s.gateway.HandleInbound(conn, payload)
	}
}
