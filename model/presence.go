package model

import "time"

// PresenceRecord tracks every session a user currently has open, as last
// reported by that session's heartbeat. Records are created on the first
// heartbeat and emptied by purges, never deleted.
type PresenceRecord struct {
	UserID          string               `bson:"user_id" json:"user_id"`
	Sessions        []string             `bson:"sessions" json:"sessions"`
	SessionActivity map[string]time.Time `bson:"session_activity" json:"session_activity"`
	SessionDevices  map[string]string    `bson:"session_devices" json:"session_devices"`
	Online          bool                 `bson:"online" json:"online"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasSession reports whether sessionID is present in the record's session set.
func (r *PresenceRecord) HasSession(sessionID string) bool {
	for _, s := range r.Sessions {
		if s == sessionID {
			return true
		}
	}
	return false
}

// PresenceRewrite is one record's desired session set after a purge pass.
// Sessions left out of the rewrite lose their activity and device entries
// lazily; stale map entries are tolerated garbage.
type PresenceRewrite struct {
	UserID   string
	Sessions []string
	Online   bool
}

// ActiveSession is one live (user, session) pair produced by the presence
// aggregation pass. It is derived data, regenerated on every pass.
type ActiveSession struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	LastActivity time.Time `json:"last_activity"`
	DeviceInfo   string    `json:"device_info,omitempty"`
}
