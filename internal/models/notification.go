package models

import (
	"time"
)

// NotificationType identifies what prompted a notification.
type NotificationType string

// Replies notify with the comment type, and the new-post broadcast to
// followers reuses the follow type.
const (
	NotificationMention NotificationType = "mention"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Notification is one inbox entry. Related IDs are nullable because not
// every type points at a post or comment; rows are hard deleted during
// cascades so they never outlive what they reference.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notifications_recipient" json:"recipient_id"`
	SenderID    uint             `gorm:"not null" json:"sender_id"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message     string           `gorm:"not null" json:"message"`

	RelatedPostID    *uint `gorm:"index" json:"related_post_id,omitempty"`
	RelatedCommentID *uint `gorm:"index" json:"related_comment_id,omitempty"`
	RelatedReplyID   *uint `gorm:"index" json:"related_reply_id,omitempty"`

	Read      bool      `gorm:"not null;default:false;index:idx_notifications_recipient" json:"read"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Recipient User  `gorm:"foreignKey:RecipientID" json:"-"`
	Sender    User  `gorm:"foreignKey:SenderID" json:"sender"`
	Post      *Post `gorm:"foreignKey:RelatedPostID" json:"post,omitempty"`
}
