package domain

import "time"

// User is the minimal boundary view of a host CMS user. Only the fields the
// gateway needs for role union on bearer tokens are represented.
type User struct {
	ID        string
	Username  string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is an entry in the host role registry. Roles are opaque strings to
// the protocol core; the registry only answers existence questions.
type Role struct {
	Name        string
	Description string
	CreatedAt   time.Time
}
