package service

import (
	"context"

	"codefolio/internal/models"
	"codefolio/internal/repository"
)

// VoteService drives the per-user vote toggle on posts. Upvote and Downvote
// each toggle: pressing the same direction again withdraws the vote, pressing
// the opposite direction flips it.
type VoteService struct {
	voteRepo      repository.VoteRepository
	postRepo      repository.PostRepository
	notifications *NotificationService
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	postRepo repository.PostRepository,
	notifications *NotificationService,
) *VoteService {
	return &VoteService{
		voteRepo:      voteRepo,
		postRepo:      postRepo,
		notifications: notifications,
	}
}

func (s *VoteService) Upvote(ctx context.Context, userID, postID uint) (*models.VoteOutcome, error) {
	return s.vote(ctx, userID, postID, models.VoteUp)
}

func (s *VoteService) Downvote(ctx context.Context, userID, postID uint) (*models.VoteOutcome, error) {
	return s.vote(ctx, userID, postID, models.VoteDown)
}

func (s *VoteService) vote(ctx context.Context, userID, postID uint, direction models.VoteValue) (*models.VoteOutcome, error) {
	current, err := s.voteRepo.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	target := direction
	if current == direction {
		target = models.VoteNone
	}

	outcome, err := s.voteRepo.Apply(ctx, userID, postID, target)
	if err != nil {
		return nil, err
	}

	// A fresh upvote notifies the author; flips and withdrawals stay quiet.
	if s.notifications != nil &&
		outcome.Previous == models.VoteNone && outcome.Current == models.VoteUp {
		if post, err := s.postRepo.GetByID(ctx, postID, 0); err == nil {
			s.notifications.NotifyUpvote(ctx, userID, post)
		}
	}

	return outcome, nil
}
