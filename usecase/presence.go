package usecase

import (
	"log"
	"sort"
	"time"

	"main/model"
	"main/services"
	"main/utils"
)

// legacySessionsAssumedLive keeps sessions with no recorded activity
// timestamp counted as live. Records written before per-session activity
// tracking existed have sessions but no activity map entries; treating them
// as dead would hide users who are genuinely online. Deliberate
// backward-compatibility policy, not a default to be cleaned up.
const legacySessionsAssumedLive = true

// IsLive reports whether a session's last heartbeat falls inside the
// liveness window.
func IsLive(lastActivity, now time.Time, timeout time.Duration) bool {
	return now.Sub(lastActivity) < timeout
}

// PresenceSummary is one aggregation pass over the presence store.
// TotalLiveCount counts every live session, including sessions whose user
// identity no longer exists; ActiveSessions lists only identity-resolved
// ones, so TotalLiveCount >= len(ActiveSessions).
type PresenceSummary struct {
	ActiveSessions []model.ActiveSession
	TotalLiveCount int
}

// Aggregate joins live sessions against admin identities. Pure: operates on
// the snapshots it is handed.
func Aggregate(records []*model.PresenceRecord, identities []*model.AdminUser, now time.Time, timeout time.Duration) *PresenceSummary {
	byID := make(map[string]*model.AdminUser, len(identities))
	for _, id := range identities {
		byID[id.UserID] = id
	}

	summary := &PresenceSummary{ActiveSessions: []model.ActiveSession{}}

	for _, record := range records {
		if len(record.Sessions) == 0 {
			continue
		}

		live := liveSessions(record, now, timeout)
		if len(live) == 0 {
			continue
		}
		summary.TotalLiveCount += len(live)

		identity, ok := byID[record.UserID]
		if !ok {
			// Stale presence for a deleted user: counted above,
			// never listed.
			continue
		}

		for _, sessionID := range live {
			lastActivity, hasActivity := record.SessionActivity[sessionID]
			if !hasActivity {
				lastActivity = record.UpdatedAt
			}
			summary.ActiveSessions = append(summary.ActiveSessions, model.ActiveSession{
				UserID:       record.UserID,
				Username:     identity.Username,
				SessionID:    sessionID,
				LastActivity: lastActivity,
				DeviceInfo:   record.SessionDevices[sessionID],
			})
		}
	}

	sort.Slice(summary.ActiveSessions, func(i, j int) bool {
		return summary.ActiveSessions[i].LastActivity.After(summary.ActiveSessions[j].LastActivity)
	})

	return summary
}

func liveSessions(record *model.PresenceRecord, now time.Time, timeout time.Duration) []string {
	live := make([]string, 0, len(record.Sessions))
	for _, sessionID := range record.Sessions {
		lastActivity, ok := record.SessionActivity[sessionID]
		if !ok {
			if legacySessionsAssumedLive {
				live = append(live, sessionID)
			}
			continue
		}
		if IsLive(lastActivity, now, timeout) {
			live = append(live, sessionID)
		}
	}
	return live
}

type PresenceReader interface {
	GetAllRecords() ([]*model.PresenceRecord, error)
}

type IdentityReader interface {
	ListAdmins() ([]*model.AdminUser, error)
}

// PresenceService produces dashboard snapshots, serving from the Redis
// cache while it is fresh and falling back to a full aggregation pass.
type PresenceService struct {
	PresenceRepo   PresenceReader
	AdminRepo      IdentityReader
	Cache          *services.PresenceCache
	SessionTimeout time.Duration
}

// Snapshot returns the current presence summary. Cached snapshots past
// their stale window are still served if the store read fails; presence
// feeds a dashboard, not a correctness-critical decision.
func (s *PresenceService) Snapshot() (*PresenceSummary, error) {
	var staleFallback *PresenceSummary

	if s.Cache != nil {
		sessions, total, stale, err := s.Cache.GetSnapshot()
		if err != nil {
			utils.TrackError("cache", "presence_snapshot_read_failed")
			log.Printf("Warning: failed to read presence snapshot from cache: %v", err)
		} else if sessions != nil {
			summary := &PresenceSummary{ActiveSessions: sessions, TotalLiveCount: total}
			if !stale {
				utils.TrackCacheOperation("presence_snapshot", true)
				return summary, nil
			}
			staleFallback = summary
		}
		utils.TrackCacheOperation("presence_snapshot", false)
	}

	summary, err := s.refresh()
	if err != nil {
		if staleFallback != nil {
			return staleFallback, nil
		}
		return nil, err
	}
	return summary, nil
}

func (s *PresenceService) refresh() (*PresenceSummary, error) {
	records, err := s.PresenceRepo.GetAllRecords()
	if err != nil {
		return nil, err
	}
	identities, err := s.AdminRepo.ListAdmins()
	if err != nil {
		return nil, err
	}

	summary := Aggregate(records, identities, time.Now(), s.SessionTimeout)
	utils.UpdateLiveSessions(float64(summary.TotalLiveCount))

	if s.Cache != nil {
		if err := s.Cache.CacheSnapshot(summary.ActiveSessions, summary.TotalLiveCount); err != nil {
			utils.TrackError("cache", "presence_snapshot_write_failed")
			log.Printf("Warning: failed to cache presence snapshot: %v", err)
		}
	}

	return summary, nil
}
