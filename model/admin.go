package model

import "time"

// AdminUser is an administrator identity joined against presence records.
// PINHash and TOTPSecret back the step-up confirmation required for access
// mode transitions.
type AdminUser struct {
	UserID     string    `bson:"user_id" json:"user_id"`
	Username   string    `bson:"username" json:"username"`
	Email      string    `bson:"email" json:"email"`
	Role       string    `bson:"role" json:"role"`
	PINHash    string    `bson:"pin_hash,omitempty" json:"-"`
	TOTPSecret string    `bson:"totp_secret,omitempty" json:"-"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

const RoleAdmin = "admin"

func (u *AdminUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
