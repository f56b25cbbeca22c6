package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	notifs, err := s.notificationService.List(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(notifs)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	count, err := s.notificationService.UnreadCount(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	notifID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(c.Context(), notifID, userID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead handles PATCH /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.notificationService.MarkAllRead(c.Context(), userID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}

// DeleteNotification handles DELETE /api/notifications/:id
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	notifID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.Delete(c.Context(), notifID, userID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Notification deleted"})
}

// DeleteAllNotifications handles DELETE /api/notifications
func (s *Server) DeleteAllNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.notificationService.DeleteAll(c.Context(), userID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "All notifications deleted"})
}
