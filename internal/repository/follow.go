package repository

import (
	"context"

	"codefolio/internal/models"

	"gorm.io/gorm"
)

// FollowRepository manages the follower graph.
type FollowRepository interface {
	// Follow creates the edge and reports whether it was new. Following a
	// user twice is not an error.
	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	ListFollowerIDs(ctx context.Context, userID uint) ([]uint, error)
	Counts(ctx context.Context, userID uint) (followers, following int64, err error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == followeeID {
		return false, models.NewValidationError("You cannot follow yourself", nil)
	}
	// INSERT ... ON CONFLICT DO NOTHING is atomic under concurrent requests
	// and avoids a duplicate key error on the unique pair index.
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO follows (follower_id, followee_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (follower_id, followee_id) DO NOTHING`,
		followerID, followeeID,
	)
	if result.Error != nil {
		return false, models.NewInternalError("Failed to follow user", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, models.NewInternalError("Failed to unfollow user", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError("Failed to check follow state", err)
	}
	return count > 0, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list followers", err)
	}
	return users, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list following", err)
	}
	return users, nil
}

// ListFollowerIDs returns every follower's ID, used for notification fan-out.
func (r *followRepository) ListFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list follower ids", err)
	}
	return ids, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var followers, following int64
	db := readDB(r.db).WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, models.NewInternalError("Failed to count followers", err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, models.NewInternalError("Failed to count following", err)
	}
	return followers, following, nil
}
