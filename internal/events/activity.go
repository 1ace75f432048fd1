package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/model"
)

// DefaultActivityCapacity is how many events an activity log retains.
const DefaultActivityCapacity = 200

// activitySeenTTL bounds how long an event id is remembered for de-duplication.
const activitySeenTTL = time.Hour

// ActivityLog keeps the most recent workflow events, newest first.
// Appending an event whose ID was already recorded is a no-op, so every
// server instance may feed the same log.
type ActivityLog interface {
	Append(ctx context.Context, ev model.Event) error
	Recent(ctx context.Context, limit int) ([]model.Event, error)
}

// RedisActivityLog stores the log as a capped Redis list.
type RedisActivityLog struct {
	rdb      *redis.Client
	capacity int
}

// NewRedisActivityLog creates a new RedisActivityLog.
func NewRedisActivityLog(rdb *redis.Client, capacity int) *RedisActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivityCapacity
	}
	return &RedisActivityLog{rdb: rdb, capacity: capacity}
}

func (l *RedisActivityLog) Append(ctx context.Context, ev model.Event) error {
	if ev.ID != "" {
		fresh, err := l.rdb.SetNX(ctx, config.CacheKey.ActivitySeenKey(ev.ID), 1, activitySeenTTL).Result()
		if err != nil {
			return fmt.Errorf("mark event seen: %w", err)
		}
		if !fresh {
			return nil
		}
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := config.CacheKey.ActivityLogKey()
	pipe := l.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(l.capacity-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (l *RedisActivityLog) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 || limit > l.capacity {
		limit = l.capacity
	}
	raw, err := l.rdb.LRange(ctx, config.CacheKey.ActivityLogKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}
	out := make([]model.Event, 0, len(raw))
	for _, item := range raw {
		var ev model.Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// MemoryActivityLog is the process-local ActivityLog.
type MemoryActivityLog struct {
	mu       sync.Mutex
	capacity int
	events   []model.Event // oldest first
	seen     map[string]struct{}
}

// NewMemoryActivityLog creates a new MemoryActivityLog.
func NewMemoryActivityLog(capacity int) *MemoryActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivityCapacity
	}
	return &MemoryActivityLog{capacity: capacity, seen: make(map[string]struct{})}
}

func (l *MemoryActivityLog) Append(_ context.Context, ev model.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ev.ID != "" {
		if _, dup := l.seen[ev.ID]; dup {
			return nil
		}
		l.seen[ev.ID] = struct{}{}
	}
	l.events = append(l.events, ev)
	if over := len(l.events) - l.capacity; over > 0 {
		for _, old := range l.events[:over] {
			delete(l.seen, old.ID)
		}
		l.events = append([]model.Event(nil), l.events[over:]...)
	}
	return nil
}

func (l *MemoryActivityLog) Recent(_ context.Context, limit int) ([]model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.events) {
		limit = len(l.events)
	}
	out := make([]model.Event, 0, limit)
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}
