package model

import "time"

// Session is a signed-in admin or census user.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	UserID    *int64    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
