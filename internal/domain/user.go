package domain

import "time"

// User is a volunteer/reporter who can claim and resolve tickets.
// Points increase by one per resolved ticket; PasswordHash is never
// returned to any caller.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Points       int
	CreatedAt    time.Time
}
