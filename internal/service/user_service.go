package service

import (
	"context"
	"strings"

	"codefolio/internal/models"
	"codefolio/internal/repository"
	"codefolio/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID    uint
	Username  string
	FirstName string
	LastName  string
	Bio       string
	Avatar    string
	GithubURL string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required", nil)
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns the public profile with follower/following counts.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetProfileByUsername(ctx, username)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxNameLen = 50

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error(), err)
		}
		user.Username = in.Username
	}
	if in.FirstName != "" {
		if len(in.FirstName) > maxNameLen {
			return nil, models.NewValidationError("First name too long (max 50 characters)", nil)
		}
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		if len(in.LastName) > maxNameLen {
			return nil, models.NewValidationError("Last name too long (max 50 characters)", nil)
		}
		user.LastName = in.LastName
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)", nil)
		}
		user.Bio = in.Bio
	}
	if in.Avatar != "" {
		if err := validation.ValidateHTTPURL(in.Avatar); err != nil {
			return nil, models.NewValidationError("avatar must be a valid URL", err)
		}
		user.Avatar = in.Avatar
	}
	if in.GithubURL != "" {
		if err := validation.ValidateHTTPURL(in.GithubURL); err != nil {
			return nil, models.NewValidationError("github_url must be a valid URL", err)
		}
		user.GithubURL = in.GithubURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and everything the cascade reaches: their
// posts, their comments and replies elsewhere, their ledger rows, their
// follow edges, and every notification they sent or received.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.userRepo.Delete(ctx, userID)
}

// SetRole grants or revokes the admin role. Caller gating happens at the
// handler level.
func (s *UserService) SetRole(ctx context.Context, targetID uint, role models.UserRole) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidationError("Invalid role", nil)
	}
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
