package server

import (
	"context"
	"strings"

	"codefolio/internal/models"
	"codefolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	CoverImage  string   `json:"coverImage"`
	GithubURL   string   `json:"githubUrl"`
	Tags        []string `json:"tags"`
	Type        string   `json:"type"`
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	posts, err := s.postService.ListPosts(c.Context(), service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: s.currentUserID(c),
		Sort:          c.Query("sort"),
		Type:          c.Query("type"),
		Tag:           c.Query("tag"),
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required", nil))
	}

	page := parsePagination(c, 10)
	posts, err := s.postService.SearchPosts(c.Context(), query, page.Limit, page.Offset, s.currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id. Increments the view counter and,
// for authenticated callers, resolves the liked tri-state.
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), postID, s.currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", err))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		CoverImage:  req.CoverImage,
		GithubURL:   req.GithubURL,
		Tags:        req.Tags,
		Type:        req.Type,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", err))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:      userID,
		PostID:      postID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		CoverImage:  req.CoverImage,
		GithubURL:   req.GithubURL,
		Tags:        req.Tags,
		Type:        req.Type,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		UserID: userID,
		PostID: postID,
	}); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// UpvotePost handles POST /api/posts/:id/upvote
func (s *Server) UpvotePost(c *fiber.Ctx) error {
	return s.votePost(c, s.voteService.Upvote)
}

// DownvotePost handles POST /api/posts/:id/downvote
func (s *Server) DownvotePost(c *fiber.Ctx) error {
	return s.votePost(c, s.voteService.Downvote)
}

func (s *Server) votePost(
	c *fiber.Ctx,
	vote func(ctx context.Context, userID, postID uint) (*models.VoteOutcome, error),
) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	outcome, err := vote(c.Context(), userID, postID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"upvotes":   outcome.Upvotes,
		"downvotes": outcome.Downvotes,
		"liked":     outcome.Liked(),
	})
}
