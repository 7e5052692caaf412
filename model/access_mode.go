package model

import "time"

const (
	ModeNormal     = "normal"
	ModeSingleUser = "single-user"
)

// AccessModeDocID is the fixed _id of the singleton access mode record.
const AccessModeDocID = "access_mode"

// AccessMode is the global access restriction record. Exactly one exists;
// it is created with ModeNormal on first read if absent and never deleted.
type AccessMode struct {
	ID                 string     `bson:"_id" json:"-"`
	Mode               string     `bson:"mode" json:"mode"`
	RestrictedToUserID string     `bson:"restricted_to_user_id,omitempty" json:"restricted_to_user_id,omitempty"`
	ActivatedAt        *time.Time `bson:"activated_at,omitempty" json:"activated_at,omitempty"`
	UpdatedAt          time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsSingleUser reports whether the record restricts access to one admin.
func (m *AccessMode) IsSingleUser() bool {
	return m != nil && m.Mode == ModeSingleUser
}

// DefaultAccessMode returns the record used when none has been stored yet.
func DefaultAccessMode() *AccessMode {
	return &AccessMode{
		ID:   AccessModeDocID,
		Mode: ModeNormal,
	}
}
