package models

import (
	"time"
)

// VoteValue is a user's recorded stance on a post. The zero value means no
// ledger row exists; it is never stored.
type VoteValue string

const (
	VoteNone VoteValue = ""
	VoteUp   VoteValue = "up"
	VoteDown VoteValue = "down"
)

// Vote is one row of the vote ledger: a user's current stance on a post.
// The combination of UserID and PostID must be unique. Rows are hard
// deleted; removal is how a vote returns to the none state.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_post" json:"post_id"`
	Value     VoteValue `gorm:"type:varchar(10);not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}

// Liked maps a ledger value to the tri-state shape responses carry.
func (v VoteValue) Liked() *bool {
	switch v {
	case VoteUp:
		b := true
		return &b
	case VoteDown:
		b := false
		return &b
	default:
		return nil
	}
}

// VoteOutcome reports the result of applying one vote action together with
// the tallies read inside the same transaction.
type VoteOutcome struct {
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	Previous  VoteValue `json:"-"`
	Current   VoteValue `json:"-"`
}

// Liked exposes the post-action ledger state as a tri-state value.
func (o *VoteOutcome) Liked() *bool {
	return o.Current.Liked()
}
