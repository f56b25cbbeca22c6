// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole controls access to moderation endpoints.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents a user in the CodeFolio application.
type User struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Username  string   `gorm:"unique;not null" json:"username"`
	Email     string   `gorm:"unique;not null" json:"email"`
	Password  string   `gorm:"not null" json:"-"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Bio       string   `json:"bio"`
	Avatar    string   `json:"avatar"`
	GithubURL string   `json:"github_url"`
	Role      UserRole `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// Single active session per user; rotated on every refresh.
	RefreshToken *string `json:"-"`

	ResetCode        *string    `json:"-"`
	ResetCodeExpires *time.Time `json:"-"`

	// Computed at query time, not persisted.
	FollowersCount int `gorm:"->" json:"followers_count"`
	FollowingCount int `gorm:"->" json:"following_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeDelete removes everything the user authored or is referenced by, so
// no vote, follow edge, or notification can point at a missing user. Posts go
// through their own hook, which handles each post's comment tree and ledger.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	if u.ID == 0 {
		return nil
	}

	var posts []Post
	if err := tx.Where("user_id = ?", u.ID).Find(&posts).Error; err != nil {
		return err
	}
	for i := range posts {
		if err := tx.Delete(&posts[i]).Error; err != nil {
			return err
		}
	}

	// Replies before comments so a comment's cleanup never misses them.
	var replyIDs []uint
	if err := tx.Model(&Reply{}).Where("user_id = ?", u.ID).Pluck("id", &replyIDs).Error; err != nil {
		return err
	}
	if len(replyIDs) > 0 {
		if err := tx.Unscoped().Where("related_reply_id IN ?", replyIDs).Delete(&Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&Reply{}).Error; err != nil {
			return err
		}
	}

	var commentIDs []uint
	if err := tx.Model(&Comment{}).Where("user_id = ?", u.ID).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		var childIDs []uint
		if err := tx.Model(&Reply{}).Where("comment_id IN ?", commentIDs).Pluck("id", &childIDs).Error; err != nil {
			return err
		}
		if len(childIDs) > 0 {
			if err := tx.Unscoped().Where("related_reply_id IN ?", childIDs).Delete(&Notification{}).Error; err != nil {
				return err
			}
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&Reply{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("related_comment_id IN ?", commentIDs).Delete(&Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&Comment{}).Error; err != nil {
			return err
		}
	}

	if err := tx.Unscoped().Where("sender_id = ? OR recipient_id = ?", u.ID, u.ID).Delete(&Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("follower_id = ? OR followee_id = ?", u.ID, u.ID).Delete(&Follow{}).Error; err != nil {
		return err
	}

	// The user's own ledger rows on other people's posts; counters on those
	// posts are settled here since no vote transition will run for them.
	var votes []Vote
	if err := tx.Where("user_id = ?", u.ID).Find(&votes).Error; err != nil {
		return err
	}
	for _, v := range votes {
		column := "upvotes"
		if v.Value == VoteDown {
			column = "downvotes"
		}
		if err := decrementPostCounter(tx, v.PostID, column); err != nil {
			return err
		}
	}
	if err := tx.Unscoped().Where("user_id = ?", u.ID).Delete(&Vote{}).Error; err != nil {
		return err
	}

	return nil
}
