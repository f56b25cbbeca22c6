// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"log/slog"

	"codefolio/internal/cache"
	"codefolio/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot set an
// Authorization header on a WebSocket upgrade, so authenticated clients
// trade their bearer token for a short-lived single-use ticket and pass it
// as a query parameter on /api/ws.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError("Realtime is unavailable", nil))
	}

	ticket := uuid.New().String()
	if err := s.redis.Set(c.Context(), cache.WSTicketKey(ticket), userID, cache.WSTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError("Failed to issue ticket", err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// WebsocketHandler returns the GET /api/ws handler for the notification
// stream. Auth is established upstream by the WebSocket middleware, which
// consumes the ticket and stores the user ID in locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime unavailable"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			slog.Warn("websocket registration rejected",
				"user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()

		// Blocks until the peer disconnects; unregisters on exit.
		client.ReadPump()
	})
}
