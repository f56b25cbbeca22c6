package server

import (
	"codefolio/internal/models"
	"codefolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

type contentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	comments, err := s.commentService.ListComments(c.Context(), postID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req contentRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", parseErr))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PATCH /api/posts/:id/comments/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req contentRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", parseErr))
	}

	comment, err := s.commentService.UpdateComment(c.Context(), service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	}); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// CreateReply handles POST /api/posts/:id/comments/:commentId/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req contentRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", parseErr))
	}

	reply, err := s.commentService.CreateReply(c.Context(), service.CreateReplyInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

// UpdateReply handles PATCH /api/posts/:id/comments/:commentId/replies/:replyId
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	replyID, err := s.parseID(c, "replyId")
	if err != nil {
		return nil
	}

	var req contentRequest
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", parseErr))
	}

	reply, err := s.commentService.UpdateReply(c.Context(), service.UpdateReplyInput{
		UserID:  userID,
		ReplyID: replyID,
		Content: req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(reply)
}

// DeleteReply handles DELETE /api/posts/:id/comments/:commentId/replies/:replyId
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	replyID, err := s.parseID(c, "replyId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteReply(c.Context(), service.DeleteReplyInput{
		UserID:  userID,
		ReplyID: replyID,
	}); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Reply deleted"})
}
