package models

import "time"

// SeasonStatus mirrors the season_status ENUM in the database.
type SeasonStatus string

const (
	SeasonStatusOpen   SeasonStatus = "open"
	SeasonStatusClosed SeasonStatus = "closed"
)

// Season is a bounded rating period. Every group has at most one open,
// active season; each season carries its own independent rating pool.
type Season struct {
	ID        int          `json:"id" db:"id"`
	GroupID   int          `json:"group_id" db:"group_id"`
	Name      string       `json:"name" db:"name"`
	Status    SeasonStatus `json:"status" db:"status"`
	GameCount int          `json:"game_count" db:"game_count"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty" db:"closed_at"`
}
