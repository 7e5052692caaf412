package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"main/model"

	"github.com/redis/go-redis/v9"
)

const presenceSnapshotKey = "presence:snapshot"

// PresenceCache holds the latest aggregated presence snapshot in Redis so
// the dashboard does not hit Mongo on every poll. A snapshot past its stale
// window is still served while the caller refreshes it.
type PresenceCache struct {
	client     *redis.Client
	cacheLock  sync.RWMutex
	ttl        time.Duration
	staleAfter time.Duration
}

type presenceSnapshotEntry struct {
	ActiveSessions []model.ActiveSession `json:"active_sessions"`
	TotalLiveCount int                   `json:"total_live_count"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// NewPresenceCache creates and initializes a new presence snapshot cache
func NewPresenceCache(redisURL string, ttl, staleAfter time.Duration) (*PresenceCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &PresenceCache{
		client:     client,
		ttl:        ttl,
		staleAfter: staleAfter,
	}, nil
}

// CacheSnapshot stores the latest aggregation result.
func (pc *PresenceCache) CacheSnapshot(sessions []model.ActiveSession, totalLiveCount int) error {
	pc.cacheLock.Lock()
	defer pc.cacheLock.Unlock()

	entry := presenceSnapshotEntry{
		ActiveSessions: sessions,
		TotalLiveCount: totalLiveCount,
		UpdatedAt:      time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal presence snapshot: %v", err)
	}

	ctx := context.Background()
	if err := pc.client.Set(ctx, presenceSnapshotKey, data, pc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache presence snapshot: %v", err)
	}

	return nil
}

// GetSnapshot returns the cached snapshot. sessions is nil on a miss; stale
// reports whether the snapshot is past its freshness window.
func (pc *PresenceCache) GetSnapshot() (sessions []model.ActiveSession, totalLiveCount int, stale bool, err error) {
	pc.cacheLock.RLock()
	defer pc.cacheLock.RUnlock()

	ctx := context.Background()
	data, err := pc.client.Get(ctx, presenceSnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, 0, false, nil // Cache miss
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to get presence snapshot from cache: %v", err)
	}

	var entry presenceSnapshotEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, 0, false, fmt.Errorf("failed to unmarshal presence snapshot: %v", err)
	}

	stale = time.Since(entry.UpdatedAt) > pc.staleAfter
	if entry.ActiveSessions == nil {
		entry.ActiveSessions = []model.ActiveSession{}
	}
	return entry.ActiveSessions, entry.TotalLiveCount, stale, nil
}

// InvalidateSnapshot drops the cached snapshot. Called after a purge so the
// dashboard does not keep showing sessions that were just cleared.
func (pc *PresenceCache) InvalidateSnapshot() error {
	pc.cacheLock.Lock()
	defer pc.cacheLock.Unlock()

	ctx := context.Background()
	if err := pc.client.Del(ctx, presenceSnapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate presence snapshot: %v", err)
	}
	return nil
}

func (pc *PresenceCache) IsConnected() bool {
	if pc == nil || pc.client == nil {
		return false
	}
	ctx := context.Background()
	return pc.client.Ping(ctx).Err() == nil
}

// Close closes the Redis connection
func (pc *PresenceCache) Close() error {
	return pc.client.Close()
}
