package domain

import "time"

// User roles
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
	RoleMD    = "md"
)

// User is a directory entry, read for actor display names and for
// admin/md notification fan-out. Account management lives upstream.
type User struct {
	UID         string    `json:"uid" db:"uid"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Role        string    `json:"role" db:"role"`
	Branch      string    `json:"branch,omitempty" db:"branch"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Actor is the authenticated identity attached to every mutating call by
// upstream auth middleware. Used for attribution only; authorization is
// enforced before requests reach this service.
type Actor struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// DisplayName returns the best available label for audit records.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	return a.UID
}
