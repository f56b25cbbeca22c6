package server

import (
	"strings"

	"codefolio/internal/models"
	"codefolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	users, err := s.userService.ListUsers(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(users)
}

// SearchUsers handles GET /api/users/search?q=... Used for mention
// autocomplete, matching username and first/last name.
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	page := parsePagination(c, 10)

	users, err := s.userService.SearchUsers(c.Context(), query, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(users)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile handles PATCH /api/users/me. Empty fields are left
// unchanged.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Bio       string `json:"bio"`
		Avatar    string `json:"avatar"`
		GithubURL string `json:"githubUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", err))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:    userID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Avatar:    req.Avatar,
		GithubURL: req.GithubURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(user)
}

// DeleteMyAccount handles DELETE /api/users/me. Cascades through the
// user's posts, comments, replies, votes, follows and notifications.
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.userService.DeleteAccount(c.Context(), userID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Account deleted"})
}

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := s.userService.GetProfile(c.Context(), username)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")
	ctx := c.Context()

	user, err := s.userService.GetProfile(ctx, username)
	if err != nil {
		return s.respondError(c, err)
	}

	page := parsePagination(c, 10)
	posts, err := s.postService.GetUserPosts(ctx, user.ID, page.Limit, page.Offset, s.currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(posts)
}

// PromoteToAdmin handles POST /api/users/:id/promote-admin (admin only)
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setUserRole(c, models.RoleAdmin)
}

// DemoteFromAdmin handles POST /api/users/:id/demote-admin (admin only)
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setUserRole(c, models.RoleUser)
}

func (s *Server) setUserRole(c *fiber.Ctx, role models.UserRole) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Admins cannot change their own role; another admin has to do it.
	if actorID := c.Locals("userID").(uint); actorID == targetID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cannot change your own role", nil))
	}

	user, err := s.userService.SetRole(c.Context(), targetID, role)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(user)
}
