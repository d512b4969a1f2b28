package models

import (
	"time"

	"github.com/google/uuid"
)

// User is identified by an opaque client token; a user row is created on
// first sight of a new token.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Token     string    `json:"-" db:"token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WatchlistItem is one tracked ticker in a user's watch list.
type WatchlistItem struct {
	ID      uuid.UUID `json:"id" db:"id"`
	UserID  uuid.UUID `json:"user_id" db:"user_id"`
	Ticker  string    `json:"ticker" db:"ticker"`
	Notes   *string   `json:"notes,omitempty" db:"notes"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}
