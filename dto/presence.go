package dto

import "main/model"

// HeartbeatRequest reports activity for one browser-tab session. SessionID
// is empty on the first beat from a new tab; the server issues one.
type HeartbeatRequest struct {
	SessionID string `json:"session_id" binding:"omitempty,uuid4"`
}

type HeartbeatResponse struct {
	SessionID string `json:"session_id"`
}

type PresenceResponse struct {
	ActiveSessions []model.ActiveSession `json:"active_sessions"`
	TotalLiveCount int                   `json:"total_live_count"`
}
