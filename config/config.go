package config

import (
	"time"

	"main/utils"
)

// PresenceConfig collects the knobs of the presence and access control
// mechanism. Values come from the environment with the same defaults the
// admin console has always used.
type PresenceConfig struct {
	// SessionTimeout bounds how stale a heartbeat may be before its
	// session stops counting as live.
	SessionTimeout time.Duration
	// PurgeBatchSize is how many presence rewrites go into one bulk
	// write during a purge. Batching is for efficiency only.
	PurgeBatchSize int
	// SnapshotTTL is how long an aggregated presence snapshot stays in
	// the Redis cache before readers go back to Mongo.
	SnapshotTTL time.Duration
	// SnapshotStaleAfter marks a cached snapshot as stale (served while
	// a refresh happens) before SnapshotTTL evicts it.
	SnapshotStaleAfter time.Duration
	// AuditQueueSize bounds the in-process audit queue. A full queue
	// drops events rather than blocking callers.
	AuditQueueSize int
}

func LoadPresenceConfig() PresenceConfig {
	return PresenceConfig{
		SessionTimeout:     utils.GetEnvAsDuration("PRESENCE_TIMEOUT", 15*time.Minute),
		PurgeBatchSize:     utils.GetEnvAsInt("PURGE_BATCH_SIZE", 100),
		SnapshotTTL:        utils.GetEnvAsDuration("PRESENCE_CACHE_TTL", 5*time.Minute),
		SnapshotStaleAfter: utils.GetEnvAsDuration("PRESENCE_CACHE_STALE_AFTER", 30*time.Second),
		AuditQueueSize:     utils.GetEnvAsInt("AUDIT_QUEUE_SIZE", 256),
	}
}
