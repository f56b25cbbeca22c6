package service

import (
	"context"
	"time"

	"codefolio/internal/models"
	"codefolio/internal/repository"
)

const maxCommentLen = 10000

// CommentService covers comments and their single level of replies.
type CommentService struct {
	commentRepo   repository.CommentRepository
	postRepo      repository.PostRepository
	notifications *NotificationService
	isAdmin       func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

type CreateReplyInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type UpdateReplyInput struct {
	UserID  uint
	ReplyID uint
	Content string
}

type DeleteReplyInput struct {
	UserID  uint
	ReplyID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifications *NotificationService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		notifications: notifications,
		isAdmin:       isAdmin,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.notifications.NotifyComment(ctx, in.UserID, post, comment.ID)
	s.notifications.NotifyMentions(ctx, in.UserID, in.Content, post, &comment.ID, nil)

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, comment.UserID, "You can only edit your own comments"); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	now := time.Now()
	comment.Content = in.Content
	comment.Edited = true
	comment.EditedAt = &now
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, in.UserID, comment.UserID, "You can only delete your own comments"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}

func (s *CommentService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Reply, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID, 0)
	if err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	reply := &models.Reply{
		Content:   in.Content,
		UserID:    in.UserID,
		CommentID: in.CommentID,
	}
	if err := s.commentRepo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}

	s.notifications.NotifyReply(ctx, in.UserID, post, comment.UserID, comment.ID, reply.ID)
	s.notifications.NotifyMentions(ctx, in.UserID, in.Content, post, &comment.ID, &reply.ID)

	return s.commentRepo.GetReplyByID(ctx, reply.ID)
}

func (s *CommentService) UpdateReply(ctx context.Context, in UpdateReplyInput) (*models.Reply, error) {
	reply, err := s.commentRepo.GetReplyByID(ctx, in.ReplyID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, reply.UserID, "You can only edit your own replies"); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	now := time.Now()
	reply.Content = in.Content
	reply.Edited = true
	reply.EditedAt = &now
	if err := s.commentRepo.UpdateReply(ctx, reply); err != nil {
		return nil, err
	}

	return s.commentRepo.GetReplyByID(ctx, reply.ID)
}

func (s *CommentService) DeleteReply(ctx context.Context, in DeleteReplyInput) error {
	reply, err := s.commentRepo.GetReplyByID(ctx, in.ReplyID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, in.UserID, reply.UserID, "You can only delete your own replies"); err != nil {
		return err
	}
	return s.commentRepo.DeleteReply(ctx, in.ReplyID)
}

func (s *CommentService) authorize(ctx context.Context, actorID, ownerID uint, deniedMsg string) error {
	if actorID == ownerID {
		return nil
	}
	if s.isAdmin == nil {
		return models.NewForbiddenError(deniedMsg, nil)
	}
	admin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(deniedMsg, nil)
	}
	return nil
}

func validateContent(content string) error {
	if content == "" {
		return models.NewValidationError("Content is required", nil)
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Content too long (max 10000 characters)", nil)
	}
	return nil
}
