// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed edge: follower watches followee. One row per pair;
// both sides of the relationship derive from this single record.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index:idx_follows_followee" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// BeforeCreate rejects self-edges at the lowest layer; handlers validate
// earlier, this is the backstop for seeds and batch writes.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.FollowerID == f.FolloweeID {
		return NewValidationError("cannot follow yourself", nil)
	}
	return nil
}
