package model

import "time"

const (
	RoleHolder = "Holder"
	RoleAgent  = "Agent"
	RoleAdmin  = "Admin"

	StatusPending  = "pending"
	StatusActive   = "active"
	StatusApproved = "approved"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanLogin reports whether the account may sign in.
func (u User) CanLogin() bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleHolder:
		return u.Status == StatusActive || u.Status == StatusApproved
	default:
		return u.Status == StatusApproved
	}
}
