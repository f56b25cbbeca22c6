package models

import (
	"time"

	"gorm.io/gorm"
)

// Reply represents a response to a comment. Replies never nest further;
// the thread is exactly one level deep.
type Reply struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"not null" json:"content"`
	UserID    uint           `gorm:"not null" json:"user_id"`
	CommentID uint           `gorm:"not null;index" json:"comment_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Comment   Comment        `gorm:"foreignKey:CommentID" json:"-"`
	Edited    bool           `gorm:"not null;default:false" json:"edited"`
	EditedAt  *time.Time     `json:"edited_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
