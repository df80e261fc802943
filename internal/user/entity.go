// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is the persisted account record. Email is the unique lookup key and
// is matched exactly as stored; only surrounding whitespace is trimmed on
// the way in.
type User struct {
	ID           string    `db:"id"             bson:"_id"`
	Email        string    `db:"email"          bson:"email"`
	PasswordHash string    `db:"password_hash"  bson:"password_hash"`
	Name         string    `db:"name"           bson:"name"`
	Role         string    `db:"role"           bson:"role"`
	Approved     bool      `db:"approved"       bson:"approved"`
	SuperAdmin   bool      `db:"is_super_admin" bson:"is_super_admin"`
	Latitude     *float64  `db:"latitude"       bson:"latitude,omitempty"`
	Longitude    *float64  `db:"longitude"      bson:"longitude,omitempty"`
	CreatedAt    time.Time `db:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"     bson:"updated_at"`
}

const (
	RoleCitizen  = "citizen"
	RoleOfficial = "official"
)

// IsPrivileged reports whether the account may perform official-level
// actions. An unapproved official is not privileged regardless of role.
func (u *User) IsPrivileged() bool {
	return u.SuperAdmin || (u.Role == RoleOfficial && u.Approved)
}
