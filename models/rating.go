package models

import "time"

// Rating is the durable per-(season, participant) state. Created lazily
// at the configured initial rating the first time a participant shows up
// in a match; mutated only by the match ledger; never deleted, even at
// zero games. Version backs the optimistic compare-and-swap on writes.
//
// Invariant: Wins + Losses + Draws == GamesPlayed.
type Rating struct {
	ID            int       `json:"id" db:"id"`
	SeasonID      int       `json:"season_id" db:"season_id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	CurrentRating int       `json:"current_rating" db:"current_rating"`
	GamesPlayed   int       `json:"games_played" db:"games_played"`
	Wins          int       `json:"wins" db:"wins"`
	Losses        int       `json:"losses" db:"losses"`
	Draws         int       `json:"draws" db:"draws"`
	Version       int       `json:"-" db:"version"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
