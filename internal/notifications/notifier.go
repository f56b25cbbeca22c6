// Package notifications provides real-time notification delivery over Redis
// pub/sub and websockets.
package notifications

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const broadcastChannel = "notifications:broadcast"

// Notifier publishes notification payloads into Redis channels. A nil Redis
// client turns every publish into a no-op so single-process deployments and
// tests work without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// StartPatternSubscriber subscribes to pattern `notifications:user:*` plus the
// broadcast channel and calls onMessage for each incoming message. onMessage
// receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a per-user channel name.
func ParseUserChannel(channel string) (uint, error) {
	var userID uint
	if _, err := fmt.Sscanf(channel, "notifications:user:%d", &userID); err != nil {
		return 0, fmt.Errorf("invalid notification channel %q: %w", channel, err)
	}
	return userID, nil
}
