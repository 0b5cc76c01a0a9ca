package domain

import (
	"time"

	"github.com/taskdesk/task-system/internal/core/schema"
)

// Role is the access level of a user.
type Role string

const (
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStaff, RoleAdmin:
		return r, true
	}
	return "", false
}

// UserSchema configures the users collection.
var UserSchema = schema.Schema{
	Collection: "users",
	Naming:     schema.PascalCase,
	Indexes: []schema.Index{
		{Fields: []string{"username"}, Unique: true},
	},
}

// User models an authenticated actor in the system.
type User struct {
	schema.Base `bson:",inline"`

	Username     string `bson:"username" json:"username"`
	PasswordHash string `bson:"password" json:"-"`
	Role         Role   `bson:"role" json:"role"`
}

// NewUser builds an unsaved, active user. hash must already be a password
// digest.
func NewUser(username, hash string, role Role) *User {
	return &User{
		Base:         schema.NewBase(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
}

// Identity is the set of verified facts about a principal extracted from a
// token. It is never persisted.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"exp"`
}

// IsAdmin reports whether the identity has the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
