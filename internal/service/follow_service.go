package service

import (
	"context"

	"codefolio/internal/models"
	"codefolio/internal/repository"
)

// FollowService manages the follower graph and the follow notification.
type FollowService struct {
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *FollowService {
	return &FollowService{
		followRepo:    followRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// Follow creates the edge and notifies the followee. Repeating an existing
// follow is a silent no-op and sends nothing.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("You cannot follow yourself", nil)
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}

	created, err := s.followRepo.Follow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if created {
		s.notifications.NotifyFollow(ctx, followerID, followeeID)
	}
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	removed, err := s.followRepo.Unfollow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("You are not following this user", nil)
	}
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followeeID)
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowers(ctx, userID, limit, offset)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowing(ctx, userID, limit, offset)
}
