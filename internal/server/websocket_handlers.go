package server

import (
	"encoding/json"

	"estatehub/internal/middleware"
	"estatehub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// CatalogWebSocket returns the handler for GET /api/ws/catalog. Clients
// receive a catalog_changed event whenever the snapshot is replaced, starting
// with one describing the current snapshot.
func (s *Server) CatalogWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			middleware.Logger.Warn("catalog websocket rejected", "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.Unregister(client)

		if hello, err := json.Marshal(notifications.CatalogChanged{
			Type:  "catalog_changed",
			Count: len(s.catalog.Snapshot()),
		}); err == nil {
			client.TrySend(hello)
		}

		go client.WritePump()
		client.ReadPump()
	})
}
