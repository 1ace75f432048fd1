package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding the active token id of a user.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("session:user:%d", userID)
}

// EventsChannel returns the Redis PubSub channel carrying workflow events.
func (r *CacheKeyStruct) EventsChannel() string {
	return "classroom:events"
}

// ActivityLogKey returns the Redis list holding the most recent workflow events, newest first.
func (r *CacheKeyStruct) ActivityLogKey() string {
	return "classroom:activity"
}

// ActivitySeenKey marks an event as already appended to the activity log.
func (r *CacheKeyStruct) ActivitySeenKey(eventID string) string {
	return fmt.Sprintf("classroom:activity:seen:%s", eventID)
}

var CacheKey = NewCacheKeyStruct()
