package model

import "time"

// APIKey represents a bearer credential bound to a user. The raw token is
// never stored; only a SHA-256 hash and a short prefix for identification
// are persisted.
type APIKey struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"-" db:"user_id"`
	KeyHash   string     `json:"-" db:"key_hash"`           // SHA-256 hash, never expose
	KeyPrefix string     `json:"keyPrefix" db:"key_prefix"` // leading chars of the raw token
	IsActive  bool       `json:"isActive" db:"is_active"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	LastUsed  *time.Time `json:"lastUsed,omitempty" db:"last_used"`
}
