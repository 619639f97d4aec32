package model

import "time"

// User is an account in the tracker. Accounts are created implicitly the
// first time a key is issued; the email is optional and may be attached
// later, exactly once.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
