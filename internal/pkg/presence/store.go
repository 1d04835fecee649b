// Package presence tracks which users currently hold a live
// notification stream. With a Redis client the state is shared across
// instances and expires on its own; without one it lives in a map
// scoped to this process.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status represents user online/offline status.
type Status struct {
	IsOnline   bool   `json:"isOnline"`
	LastSeenAt string `json:"lastSeenAt,omitempty"`
}

const keyPrefix = "presence:"

const defaultTTL = 60 * time.Second

type Tracker struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.RWMutex
	local map[string]Status
}

// NewTracker builds a tracker. A nil client selects the in-memory mode.
func NewTracker(rdb *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tracker{rdb: rdb, ttl: ttl, local: map[string]Status{}}
}

// Set updates the presence for a user and returns the stored status.
// Online entries carry the TTL, so a crashed instance cannot leave a
// user marked online forever.
func (t *Tracker) Set(ctx context.Context, userID string, isOnline bool, at time.Time) Status {
	if t.rdb != nil {
		key := keyPrefix + userID
		if !isOnline {
			_ = t.rdb.Del(ctx, key).Err()
			return Status{IsOnline: false}
		}
		ts := at.UTC().Format(time.RFC3339)
		_ = t.rdb.Set(ctx, key, ts, t.ttl).Err()
		return Status{IsOnline: true, LastSeenAt: ts}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !isOnline {
		delete(t.local, userID)
		return Status{IsOnline: false}
	}
	status := Status{
		IsOnline:   true,
		LastSeenAt: at.UTC().Format(time.RFC3339),
	}
	t.local[userID] = status
	return status
}

// Get returns the stored status for a user.
func (t *Tracker) Get(ctx context.Context, userID string) (Status, bool) {
	if t.rdb != nil {
		val, err := t.rdb.Get(ctx, keyPrefix+userID).Result()
		if err != nil {
			return Status{}, false
		}
		return Status{IsOnline: true, LastSeenAt: val}, true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.local[userID]
	return status, ok
}

// GetMany returns statuses for the provided user IDs. Users with no
// entry are omitted rather than reported offline.
func (t *Tracker) GetMany(ctx context.Context, userIDs []string) map[string]Status {
	if t.rdb != nil {
		keys := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			keys = append(keys, keyPrefix+id)
		}
		out := make(map[string]Status, len(userIDs))
		if len(keys) == 0 {
			return out
		}
		values, err := t.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return out
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok || str == "" {
				continue
			}
			out[userIDs[i]] = Status{IsOnline: true, LastSeenAt: str}
		}
		return out
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Status, len(userIDs))
	for _, id := range userIDs {
		if status, ok := t.local[id]; ok {
			out[id] = status
		}
	}
	return out
}
