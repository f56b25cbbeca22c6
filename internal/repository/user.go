package repository

import (
	"context"
	"fmt"
	"strings"

	"codefolio/internal/cache"
	"codefolio/internal/models"

	"gorm.io/gorm"
)

const (
	followersCountExpr = "(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS followers_count"
	followingCountExpr = "(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count"
)

// UserRepository handles all database operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDWithPosts(ctx context.Context, id uint, postLimit int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return readDB(r.db).WithContext(ctx).First(&user, id).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("User not found", err)
		}
		return nil, models.NewInternalError("Failed to get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByIDWithPosts(ctx context.Context, id uint, postLimit int) (*models.User, error) {
	if postLimit <= 0 {
		postLimit = 10
	}
	if postLimit > 100 {
		postLimit = 100
	}

	var user models.User
	err := readDB(r.db).WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(postLimit)
		}).
		First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("User not found", err)
		}
		return nil, models.NewInternalError("Failed to get user", err)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user matches, so callers can
// distinguish "not found" from a query failure during login.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := readDB(r.db).WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, models.NewInternalError("Failed to get user by email", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, models.NewInternalError("Failed to get user by username", err)
	}
	return &user, nil
}

// GetProfileByUsername loads a user along with their follower and following
// counts, computed in the same query.
func (r *userRepository) GetProfileByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.ProfileKey(username), &user, cache.ProfileTTL, func() error {
		return readDB(r.db).WithContext(ctx).
			Select(fmt.Sprintf("users.*, %s, %s", followersCountExpr, followingCountExpr)).
			Where("username = ?", username).
			First(&user).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("User not found", err)
		}
		return nil, models.NewInternalError("Failed to get profile", err)
	}
	return &user, nil
}

// GetByUsernames resolves a set of usernames case-insensitively. Names that
// match no user are silently absent from the result.
func (r *userRepository) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(usernames))
	for _, name := range usernames {
		lowered = append(lowered, strings.ToLower(name))
	}

	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where("LOWER(username) IN ?", lowered).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to resolve usernames", err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already taken", err)
		}
		return models.NewInternalError("Failed to create user", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already taken", err)
		}
		return models.NewInternalError("Failed to update user", err)
	}
	cache.InvalidateUser(ctx, user.ID)
	cache.InvalidateProfile(ctx, user.Username)
	return nil
}

// Delete loads the user first so the cascade hook runs against a populated
// row, then soft deletes it.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.NewNotFoundError("User not found", err)
		}
		return models.NewInternalError("Failed to load user", err)
	}
	if err := r.db.WithContext(ctx).Delete(&user).Error; err != nil {
		return models.NewInternalError("Failed to delete user", err)
	}
	cache.InvalidateUser(ctx, id)
	cache.InvalidateProfile(ctx, user.Username)
	cache.InvalidatePostsList(ctx)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list users", err)
	}
	return users, nil
}

// Search matches against username, first name and last name.
func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern).
		Order("username ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to search users", err)
	}
	return users, nil
}
