package model

import "time"

// AttackAlert is raised by the external detection process. This service only
// reads alerts and records acknowledgments.
type AttackAlert struct {
	AlertID        string     `bson:"alert_id" json:"alert_id"`
	Timestamp      time.Time  `bson:"timestamp" json:"timestamp"`
	Type           string     `bson:"type" json:"type"`
	Severity       string     `bson:"severity" json:"severity"`
	Details        string     `bson:"details" json:"details"`
	Acknowledged   bool       `bson:"acknowledged" json:"acknowledged"`
	AcknowledgedBy string     `bson:"acknowledged_by,omitempty" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `bson:"acknowledged_at,omitempty" json:"acknowledged_at,omitempty"`
}
