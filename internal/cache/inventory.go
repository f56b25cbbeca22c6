package cache

import (
	"context"
	"fmt"
	"time"
)

// Key patterns. Everything the application writes to Redis goes through
// this inventory so keys are greppable in one place.
const (
	UserKeyPrefix         = "user:%d"
	PostKeyPrefix         = "post:%d"
	ProfileKeyPrefix      = "profile:%s"
	PostsListKeyPrefix    = "posts:list:%d:%d"
	UnreadCountKeyPrefix  = "notifications:unread:%d"
	JWTBlacklistKeyPrefix = "jwt:blacklist:%s"
	WSTicketKeyPrefix     = "ws:ticket:%s"
)

const (
	UserTTL         = 5 * time.Minute
	ProfileTTL      = 5 * time.Minute
	PostTTL         = 30 * time.Minute
	ListTTL         = 1 * time.Minute
	UnreadTTL       = 1 * time.Minute
	WSTicketTTL     = 30 * time.Second
	JWTBlacklistTTL = 7 * 24 * time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, username)
}

func PostsListKey(limit, offset int) string {
	return fmt.Sprintf(PostsListKeyPrefix, limit, offset)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, userID)
}

func JWTBlacklistKey(jti string) string {
	return fmt.Sprintf(JWTBlacklistKeyPrefix, jti)
}

func WSTicketKey(id string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, id)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateProfile(ctx context.Context, username string) {
	Invalidate(ctx, ProfileKey(username))
}

// InvalidatePostsList clears every cached page of the post feed. Pages are
// keyed by limit and offset, so a SCAN over the prefix is required.
func InvalidatePostsList(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:list:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

func InvalidateUnreadCount(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadCountKey(userID))
}
