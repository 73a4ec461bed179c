package domain

import "time"

// User is an account that may own tasks. Sessions are only issued for active users.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const UserStatusActive = "active"

func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}
