package activity

import "time"

// Activity types
const (
	TypeLogin  = "login"
	TypeLogout = "logout"
)

// Activity is one append-only audit row. Rows are never updated or deleted
// by normal flows.
type Activity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Type      string    `json:"activity_type"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Meta carries the request-side context of a login/logout.
type Meta struct {
	IPAddress string
	UserAgent string
}
