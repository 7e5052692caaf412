package dto

import (
	"time"

	"main/model"
)

// ActivateSingleUserRequest carries the step-up confirmation for entering
// single-user mode. Exactly one of PIN or TOTPCode must be supplied; which
// one is accepted depends on what the admin has enrolled.
type ActivateSingleUserRequest struct {
	// PreserveSessionID is the admin's own current session, kept alive
	// through the purge. Empty means purge everything, the caller's
	// session included.
	PreserveSessionID string `json:"preserve_session_id" binding:"omitempty,uuid4"`
	PIN               string `json:"pin" binding:"omitempty,pin"`
	TOTPCode          string `json:"totp_code" binding:"omitempty,numeric,len=6"`
}

type DeactivateSingleUserRequest struct {
	PIN      string `json:"pin" binding:"omitempty,pin"`
	TOTPCode string `json:"totp_code" binding:"omitempty,numeric,len=6"`
}

type AccessModeResponse struct {
	Mode               string     `json:"mode"`
	RestrictedToUserID string     `json:"restricted_to_user_id,omitempty"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
}

func ToAccessModeResponse(mode *model.AccessMode) AccessModeResponse {
	return AccessModeResponse{
		Mode:               mode.Mode,
		RestrictedToUserID: mode.RestrictedToUserID,
		ActivatedAt:        mode.ActivatedAt,
	}
}

// ActivationResponse reports the outcome of entering single-user mode,
// including how the companion purge went.
type ActivationResponse struct {
	AccessModeResponse
	PurgedCount        int  `json:"purged_count"`
	PreservedExemption bool `json:"preserved_exemption"`
	FailedBatches      int  `json:"failed_batches,omitempty"`
}
