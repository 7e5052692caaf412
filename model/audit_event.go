package model

import "time"

// Audit event kinds recorded by this service.
const (
	AuditModeActivated   = "single_user_mode_activated"
	AuditModeDeactivated = "single_user_mode_deactivated"
	AuditPurgeCompleted  = "session_purge_completed"
	AuditPurgePartial    = "session_purge_partial_failure"
	AuditAlertAcked      = "attack_alert_acknowledged"
)

// AuditEvent is one entry in the append-only audit log.
type AuditEvent struct {
	Kind      string    `bson:"kind" json:"kind"`
	ActorID   string    `bson:"actor_id" json:"actor_id"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Detail    string    `bson:"detail,omitempty" json:"detail,omitempty"`
}
