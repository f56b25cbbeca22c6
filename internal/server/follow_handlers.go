package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	followerID := c.Locals("userID").(uint)
	followeeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.Follow(c.Context(), followerID, followeeID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	followerID := c.Locals("userID").(uint)
	followeeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.Context(), followerID, followeeID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"following": false})
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	users, err := s.followService.ListFollowers(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	users, err := s.followService.ListFollowing(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(users)
}
