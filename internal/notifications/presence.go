package notifications

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	presenceOnlineSetKey  = "ws:online_users"
	presenceLastSeenKeyNS = "ws:last_seen:"
	presenceLastSeenTTL   = 90 * time.Second
	presenceOfflineGrace  = 5 * time.Second
	presenceReaperEvery   = 60 * time.Second
)

// Presence tracks which users hold live websocket connections and mirrors
// that into Redis so every instance answers online checks consistently.
// A short grace window absorbs reconnects before a user counts as offline.
type Presence struct {
	rdb *redis.Client

	mu              sync.RWMutex
	localConnCounts map[uint]int
	offlineTimers   map[uint]*time.Timer

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresence creates a tracker and starts a Redis reaper when Redis is available.
func NewPresence(rdb *redis.Client) *Presence {
	p := &Presence{
		rdb:             rdb,
		localConnCounts: make(map[uint]int),
		offlineTimers:   make(map[uint]*time.Timer),
		stopCh:          make(chan struct{}),
	}

	if p.rdb != nil {
		go p.reaperLoop()
	}

	return p
}

func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.mu.Lock()
		for userID, timer := range p.offlineTimers {
			if timer != nil {
				timer.Stop()
			}
			delete(p.offlineTimers, userID)
		}
		p.mu.Unlock()
	})
}

func (p *Presence) Register(ctx context.Context, userID uint) {
	p.mu.Lock()
	if t, ok := p.offlineTimers[userID]; ok {
		t.Stop()
		delete(p.offlineTimers, userID)
	}
	p.localConnCounts[userID]++
	p.mu.Unlock()

	p.Touch(ctx, userID)
}

// Touch refreshes the user's presence keys in Redis.
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	if err := p.rdb.SAdd(ctx, presenceOnlineSetKey, uid).Err(); err != nil {
		log.Printf("presence touch SADD failed for user %d: %v", userID, err)
	}
	if err := p.rdb.SetEx(ctx, p.lastSeenKey(userID), strconv.FormatInt(time.Now().Unix(), 10), presenceLastSeenTTL).Err(); err != nil {
		log.Printf("presence touch SETEX failed for user %d: %v", userID, err)
	}
}

func (p *Presence) Unregister(ctx context.Context, userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n, ok := p.localConnCounts[userID]; ok {
		n--
		if n > 0 {
			p.localConnCounts[userID] = n
			return
		}
		delete(p.localConnCounts, userID)
	}

	if t, ok := p.offlineTimers[userID]; ok {
		t.Stop()
	}
	p.offlineTimers[userID] = time.AfterFunc(presenceOfflineGrace, func() {
		p.finalizeOffline(context.Background(), userID)
	})
}

func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.RLock()
	if p.localConnCounts[userID] > 0 {
		p.mu.RUnlock()
		return true
	}
	p.mu.RUnlock()

	if p.rdb == nil {
		return false
	}

	exists, err := p.rdb.Exists(ctx, p.lastSeenKey(userID)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// OnlineUserIDs returns online user IDs from Redis (with stale filtering),
// unioned with local connections as a fallback safety net.
func (p *Presence) OnlineUserIDs(ctx context.Context) []uint {
	local := p.localUserIDs()
	if p.rdb == nil {
		return local
	}

	members, err := p.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return local
	}

	seen := make(map[uint]struct{}, len(members)+len(local))
	result := make([]uint, 0, len(members)+len(local))

	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		exists, existsErr := p.rdb.Exists(ctx, p.lastSeenKey(userID)).Result()
		if existsErr != nil {
			continue
		}
		if exists == 0 {
			_ = p.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		result = append(result, userID)
	}

	for _, userID := range local {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		result = append(result, userID)
	}

	return result
}

// reapOnce is test-visible and performs one cleanup pass over the online set.
func (p *Presence) reapOnce(ctx context.Context) {
	if p.rdb == nil {
		return
	}

	members, err := p.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return
	}

	for _, raw := range members {
		userID64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		exists, existsErr := p.rdb.Exists(ctx, p.lastSeenKey(uint(userID64))).Result()
		if existsErr != nil || exists > 0 {
			continue
		}
		_ = p.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()
	}
}

func (p *Presence) reaperLoop() {
	ticker := time.NewTicker(presenceReaperEvery)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.reapOnce(context.Background())
		}
	}
}

func (p *Presence) finalizeOffline(ctx context.Context, userID uint) {
	p.mu.Lock()
	if p.localConnCounts[userID] > 0 {
		delete(p.offlineTimers, userID)
		p.mu.Unlock()
		return
	}
	delete(p.offlineTimers, userID)
	p.mu.Unlock()

	if p.rdb == nil {
		return
	}
	exists, err := p.rdb.Exists(ctx, p.lastSeenKey(userID)).Result()
	if err == nil && exists > 0 {
		// Another process likely refreshed presence. Keep user online.
		return
	}
	_ = p.rdb.SRem(ctx, presenceOnlineSetKey, strconv.FormatUint(uint64(userID), 10)).Err()
}

func (p *Presence) localUserIDs() []uint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]uint, 0, len(p.localConnCounts))
	for userID, count := range p.localConnCounts {
		if count > 0 {
			ids = append(ids, userID)
		}
	}
	return ids
}

func (p *Presence) lastSeenKey(userID uint) string {
	return presenceLastSeenKeyNS + strconv.FormatUint(uint64(userID), 10)
}
