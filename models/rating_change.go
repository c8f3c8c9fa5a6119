package models

import "time"

// RatingChange is one permanent audit row per (match, participant). It
// duplicates the outcome fields so rating history can be queried per
// participant without touching match rows. Never mutated or deleted:
// when a match is reversed only the match is soft-deleted, and history
// readers use MatchDeleted to filter the ghost entries out.
type RatingChange struct {
	ID            int       `json:"id" db:"id"`
	MatchID       int       `json:"match_id" db:"match_id"`
	GroupID       int       `json:"group_id" db:"group_id"`
	SeasonID      int       `json:"season_id" db:"season_id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	Placement     int       `json:"placement" db:"placement"`
	IsTied        bool      `json:"is_tied" db:"is_tied"`
	RatingBefore  int       `json:"rating_before" db:"rating_before"`
	RatingAfter   int       `json:"rating_after" db:"rating_after"`
	RatingChange  int       `json:"rating_change" db:"rating_change"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// Populated from the parent match on read, not stored.
	MatchDeleted bool `json:"match_deleted" db:"-"`
}
