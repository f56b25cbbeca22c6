package service

import (
	"context"
	"strings"

	"codefolio/internal/models"
	"codefolio/internal/repository"
	"codefolio/internal/validation"
)

type PostService struct {
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	isAdmin       func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	Content     string
	CoverImage  string
	GithubURL   string
	Tags        []string
	Type        string
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	Sort          string
	Type          string
	Tag           string
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       string
	Description string
	Content     string
	CoverImage  string
	GithubURL   string
	Tags        []string
	Type        string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		userRepo:      userRepo,
		notifications: notifications,
		isAdmin:       isAdmin,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const maxTitleLen = 300
	const maxDescriptionLen = 1000
	const maxContentLen = 50000

	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required", nil)
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)", nil)
	}
	if len(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError("Description too long (max 1000 characters)", nil)
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)", nil)
	}
	if !models.ValidPostType(models.PostType(in.Type)) {
		return nil, models.NewValidationError("Invalid project type", nil)
	}
	if err := validation.ValidateTags(in.Tags); err != nil {
		return nil, models.NewValidationError(err.Error(), err)
	}
	if err := validation.ValidateHTTPURL(in.GithubURL); err != nil {
		return nil, models.NewValidationError("github_url must be a valid URL", err)
	}
	if err := validation.ValidateHTTPURL(in.CoverImage); err != nil {
		return nil, models.NewValidationError("cover_image must be a valid URL", err)
	}

	post := &models.Post{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		CoverImage:  in.CoverImage,
		GithubURL:   in.GithubURL,
		Tags:        normalizeTags(in.Tags),
		Type:        models.PostType(in.Type),
		UserID:      in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Fan-out after the post is committed; failures never undo it.
	s.notifications.NotifyMentions(ctx, in.UserID, in.Content+" "+in.Description, post, nil, nil)
	if author, err := s.userRepo.GetByID(ctx, in.UserID); err == nil {
		s.notifications.NotifyNewPost(ctx, author, post)
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// GetPost serves the detail view: it counts the view, then returns the post
// with the viewer's tri-state liked value.
func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	if err := s.postRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	if in.Type != "" && !models.ValidPostType(models.PostType(in.Type)) {
		return nil, models.NewValidationError("Invalid project type", nil)
	}
	filter := repository.PostFilter{Type: in.Type, Tag: in.Tag}
	return s.postRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID, in.Sort, filter)
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required", nil)
	}
	return s.postRepo.Search(ctx, query, limit, offset, currentUserID)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, in.UserID, post.UserID, "You can only update your own posts"); err != nil {
		return nil, err
	}

	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Description != "" {
		post.Description = in.Description
	}
	if in.Content != "" {
		post.Content = in.Content
	}
	if in.CoverImage != "" {
		if err := validation.ValidateHTTPURL(in.CoverImage); err != nil {
			return nil, models.NewValidationError("cover_image must be a valid URL", err)
		}
		post.CoverImage = in.CoverImage
	}
	if in.GithubURL != "" {
		if err := validation.ValidateHTTPURL(in.GithubURL); err != nil {
			return nil, models.NewValidationError("github_url must be a valid URL", err)
		}
		post.GithubURL = in.GithubURL
	}
	if in.Tags != nil {
		if err := validation.ValidateTags(in.Tags); err != nil {
			return nil, models.NewValidationError(err.Error(), err)
		}
		post.Tags = normalizeTags(in.Tags)
	}
	if in.Type != "" {
		if !models.ValidPostType(models.PostType(in.Type)) {
			return nil, models.NewValidationError("Invalid project type", nil)
		}
		post.Type = models.PostType(in.Type)
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, in.PostID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, in.UserID, post.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

func (s *PostService) authorize(ctx context.Context, actorID, ownerID uint, deniedMsg string) error {
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

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, strings.ToLower(strings.TrimSpace(tag)))
	}
	return out
}
