// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a top-level comment on a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"not null" json:"content"`
	UserID    uint           `gorm:"not null" json:"user_id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Post      Post           `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Edited    bool           `gorm:"not null;default:false" json:"edited"`
	EditedAt  *time.Time     `json:"edited_at,omitempty"`
	Replies   []Reply        `gorm:"foreignKey:CommentID" json:"replies,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
