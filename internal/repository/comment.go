package repository

import (
	"context"

	"codefolio/internal/cache"
	"codefolio/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment and reply operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error

	CreateReply(ctx context.Context, reply *models.Reply) error
	GetReplyByID(ctx context.Context, id uint) (*models.Reply, error)
	UpdateReply(ctx context.Context, reply *models.Reply) error
	DeleteReply(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError("Failed to create comment", err)
	}
	cache.Invalidate(ctx, cache.PostKey(comment.PostID))
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := readDB(r.db).WithContext(ctx).Preload("User").First(&comment, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Comment not found", err)
		}
		return nil, models.NewInternalError("Failed to get comment", err)
	}
	return &comment, nil
}

// ListByPost returns a page of top-level comments, oldest first, each with its
// replies preloaded in thread order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list comments", err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return models.NewInternalError("Failed to update comment", err)
	}
	cache.Invalidate(ctx, cache.PostKey(comment.PostID))
	return nil
}

// Delete removes a comment together with its replies and the notifications
// that point at either, in one transaction.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewNotFoundError("Comment not found", err)
			}
			return models.NewInternalError("Failed to load comment", err)
		}

		var replyIDs []uint
		if err := tx.Model(&models.Reply{}).
			Where("comment_id = ?", id).
			Pluck("id", &replyIDs).Error; err != nil {
			return models.NewInternalError("Failed to collect replies", err)
		}
		if len(replyIDs) > 0 {
			if err := tx.Unscoped().
				Where("related_reply_id IN ?", replyIDs).
				Delete(&models.Notification{}).Error; err != nil {
				return models.NewInternalError("Failed to clean reply notifications", err)
			}
			if err := tx.Where("comment_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
				return models.NewInternalError("Failed to delete replies", err)
			}
		}

		if err := tx.Unscoped().
			Where("related_comment_id = ?", id).
			Delete(&models.Notification{}).Error; err != nil {
			return models.NewInternalError("Failed to clean comment notifications", err)
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return models.NewInternalError("Failed to delete comment", err)
		}

		cache.Invalidate(ctx, cache.PostKey(comment.PostID))
		return nil
	})
}

func (r *commentRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Create(reply).Error; err != nil {
		return models.NewInternalError("Failed to create reply", err)
	}
	return nil
}

func (r *commentRepository) GetReplyByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	err := readDB(r.db).WithContext(ctx).Preload("User").First(&reply, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Reply not found", err)
		}
		return nil, models.NewInternalError("Failed to get reply", err)
	}
	return &reply, nil
}

func (r *commentRepository) UpdateReply(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Save(reply).Error; err != nil {
		return models.NewInternalError("Failed to update reply", err)
	}
	return nil
}

func (r *commentRepository) DeleteReply(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reply models.Reply
		if err := tx.First(&reply, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewNotFoundError("Reply not found", err)
			}
			return models.NewInternalError("Failed to load reply", err)
		}
		if err := tx.Unscoped().
			Where("related_reply_id = ?", id).
			Delete(&models.Notification{}).Error; err != nil {
			return models.NewInternalError("Failed to clean reply notifications", err)
		}
		if err := tx.Delete(&reply).Error; err != nil {
			return models.NewInternalError("Failed to delete reply", err)
		}
		return nil
	})
}
