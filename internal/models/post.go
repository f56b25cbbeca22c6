// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostType categorizes the kind of project a post showcases.
type PostType string

const (
	PostTypeWebDevelopment  PostType = "Web Development"
	PostTypeMobileApp       PostType = "Mobile App"
	PostTypeAPIDevelopment  PostType = "API Development"
	PostTypeGame            PostType = "Game"
	PostTypeDesign          PostType = "Design"
	PostTypeDataScience     PostType = "Data Science"
	PostTypeMachineLearning PostType = "Machine Learning"
	PostTypeDevOps          PostType = "DevOps"
	PostTypeOther           PostType = "Other"
)

// PostTypes lists every accepted project category.
var PostTypes = []PostType{
	PostTypeWebDevelopment,
	PostTypeMobileApp,
	PostTypeAPIDevelopment,
	PostTypeGame,
	PostTypeDesign,
	PostTypeDataScience,
	PostTypeMachineLearning,
	PostTypeDevOps,
	PostTypeOther,
}

// ValidPostType reports whether t is one of the accepted categories.
func ValidPostType(t PostType) bool {
	for _, pt := range PostTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// Post represents a project showcase in the CodeFolio application.
type Post struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Content     string   `gorm:"type:text;not null" json:"content"`
	CoverImage  string   `json:"cover_image"`
	GithubURL   string   `json:"github_url"`
	Tags        []string `gorm:"serializer:json;type:text" json:"tags"`
	Type        PostType `gorm:"type:varchar(32);not null;default:'Web Development'" json:"type"`
	UserID      uint     `gorm:"not null;index" json:"user_id"`
	User        User     `gorm:"foreignKey:UserID" json:"author"`

	// Denormalized tallies, kept in step with the vote ledger.
	Upvotes   int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int `gorm:"not null;default:0" json:"downvotes"`
	Views     int `gorm:"not null;default:0" json:"views"`

	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// UserVote carries the requesting user's ledger value ("up", "down" or
	// empty), computed at query time. Clients consume Liked instead.
	UserVote string `gorm:"->" json:"-"`
	// Liked is the tri-state view of UserVote: true, false, or null when the
	// requester has no vote (or is anonymous).
	Liked *bool `gorm:"-" json:"liked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// SyncLiked derives the Liked pointer from the scanned UserVote column.
func (p *Post) SyncLiked() {
	switch VoteValue(p.UserVote) {
	case VoteUp:
		v := true
		p.Liked = &v
	case VoteDown:
		v := false
		p.Liked = &v
	default:
		p.Liked = nil
	}
}

// BeforeDelete clears the post's comment tree, its vote ledger rows, and any
// notification that points at the post or its comments.
func (p *Post) BeforeDelete(tx *gorm.DB) error {
	if p.ID == 0 {
		return nil
	}

	if err := tx.Unscoped().Where("related_post_id = ?", p.ID).Delete(&Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("post_id = ?", p.ID).Delete(&Vote{}).Error; err != nil {
		return err
	}

	var commentIDs []uint
	if err := tx.Model(&Comment{}).Where("post_id = ?", p.ID).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) == 0 {
		return nil
	}

	var replyIDs []uint
	if err := tx.Model(&Reply{}).Where("comment_id IN ?", commentIDs).Pluck("id", &replyIDs).Error; err != nil {
		return err
	}
	if len(replyIDs) > 0 {
		if err := tx.Unscoped().Where("related_reply_id IN ?", replyIDs).Delete(&Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&Reply{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Unscoped().Where("related_comment_id IN ?", commentIDs).Delete(&Notification{}).Error; err != nil {
		return err
	}
	return tx.Where("post_id = ?", p.ID).Delete(&Comment{}).Error
}

// decrementPostCounter lowers one of the denormalized tallies, clamped at
// zero so drift can never push a counter negative.
func decrementPostCounter(tx *gorm.DB, postID uint, column string) error {
	if column != "upvotes" && column != "downvotes" {
		return fmt.Errorf("unknown post counter %q", column)
	}
	expr := fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column)
	return tx.Model(&Post{}).Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(expr)).Error
}
