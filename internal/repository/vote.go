package repository

import (
	"context"
	"fmt"

	"codefolio/internal/cache"
	"codefolio/internal/models"
	"codefolio/internal/observability"

	"gorm.io/gorm"
)

// VoteRepository manages the vote ledger and keeps the post tallies in sync
// with it.
type VoteRepository interface {
	// Apply moves a user's vote on a post to target and adjusts the post
	// counters by the delta between the previous and new state. Passing the
	// current value is a no-op; passing VoteNone withdraws the vote.
	Apply(ctx context.Context, userID, postID uint, target models.VoteValue) (*models.VoteOutcome, error)
	Get(ctx context.Context, userID, postID uint) (models.VoteValue, error)
}

type voteRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db, log: observability.NewRepoLogger("votes")}
}

func (r *voteRepository) Get(ctx context.Context, userID, postID uint) (models.VoteValue, error) {
	var vote models.Vote
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&vote).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.VoteNone, nil
		}
		return models.VoteNone, models.NewInternalError("Failed to read vote", err)
	}
	return vote.Value, nil
}

func (r *voteRepository) Apply(ctx context.Context, userID, postID uint, target models.VoteValue) (*models.VoteOutcome, error) {
	done := observability.TrackQuery("update", "votes")
	defer done()

	var outcome models.VoteOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "upvotes", "downvotes").First(&post, postID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewNotFoundError("Post not found", err)
			}
			return models.NewInternalError("Failed to load post", err)
		}

		previous := models.VoteNone
		var vote models.Vote
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&vote).Error
		switch {
		case err == nil:
			previous = vote.Value
		case err == gorm.ErrRecordNotFound:
			// no existing ledger row
		default:
			return models.NewInternalError("Failed to read vote", err)
		}

		if err := r.transition(tx, userID, postID, previous, target); err != nil {
			return err
		}

		// Re-read tallies inside the transaction so the outcome reflects
		// exactly what this action produced.
		if err := tx.Select("upvotes", "downvotes").First(&post, postID).Error; err != nil {
			return models.NewInternalError("Failed to read tallies", err)
		}

		outcome = models.VoteOutcome{
			Upvotes:   post.Upvotes,
			Downvotes: post.Downvotes,
			Previous:  previous,
			Current:   target,
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "apply")
		return nil, err
	}

	observability.VoteTransitions.WithLabelValues(transitionLabel(outcome.Previous), transitionLabel(outcome.Current)).Inc()
	r.log.LogWrite(ctx, "apply", map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
		"from":    string(outcome.Previous),
		"to":      string(outcome.Current),
	})

	cache.Invalidate(ctx, cache.PostKey(postID))
	return &outcome, nil
}

func (r *voteRepository) transition(tx *gorm.DB, userID, postID uint, previous, target models.VoteValue) error {
	if previous == target {
		return nil
	}

	switch {
	case previous == models.VoteNone:
		vote := models.Vote{UserID: userID, PostID: postID, Value: target}
		if err := tx.Create(&vote).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Concurrent vote won the race; leave its state alone.
				return nil
			}
			return models.NewInternalError("Failed to record vote", err)
		}
		return incrementCounter(tx, postID, counterColumn(target))

	case target == models.VoteNone:
		res := tx.Unscoped().
			Where("user_id = ? AND post_id = ? AND value = ?", userID, postID, previous).
			Delete(&models.Vote{})
		if res.Error != nil {
			return models.NewInternalError("Failed to withdraw vote", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return decrementCounter(tx, postID, counterColumn(previous))

	default: // flip
		res := tx.Model(&models.Vote{}).
			Where("user_id = ? AND post_id = ? AND value = ?", userID, postID, previous).
			Update("value", target)
		if res.Error != nil {
			return models.NewInternalError("Failed to flip vote", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := decrementCounter(tx, postID, counterColumn(previous)); err != nil {
			return err
		}
		return incrementCounter(tx, postID, counterColumn(target))
	}
}

func counterColumn(v models.VoteValue) string {
	if v == models.VoteDown {
		return "downvotes"
	}
	return "upvotes"
}

func transitionLabel(v models.VoteValue) string {
	if v == models.VoteNone {
		return "none"
	}
	return string(v)
}

func incrementCounter(tx *gorm.DB, postID uint, column string) error {
	if column != "upvotes" && column != "downvotes" {
		return models.NewInternalError("invalid counter column", nil)
	}
	err := tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return models.NewInternalError("Failed to adjust tally", err)
	}
	return nil
}

// decrementCounter clamps at zero so a stale ledger can never drive a tally
// negative.
func decrementCounter(tx *gorm.DB, postID uint, column string) error {
	if column != "upvotes" && column != "downvotes" {
		return models.NewInternalError("invalid counter column", nil)
	}
	expr := fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column)
	err := tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(expr)).Error
	if err != nil {
		return models.NewInternalError("Failed to adjust tally", err)
	}
	return nil
}
