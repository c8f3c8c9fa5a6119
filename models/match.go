package models

import "time"

type MatchMode string

const (
	MatchModeIndividual MatchMode = "individual"
	MatchModeTeam       MatchMode = "team"
)

// Match is the immutable record of one reported match. Reversal sets
// DeletedAt (soft delete); rows are never hard-deleted, so the ledger
// can always be audited.
type Match struct {
	ID        int        `json:"id" db:"id"`
	GroupID   int        `json:"group_id" db:"group_id"`
	SeasonID  int        `json:"season_id" db:"season_id"`
	Mode      MatchMode  `json:"mode" db:"mode"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	Outcomes []MatchOutcome `json:"outcomes,omitempty" db:"-"`
}

// MatchOutcome is one participant's result within a match, with the
// rating snapshot taken before the match and the applied delta. These
// fields are exactly what reversal needs to subtract later.
type MatchOutcome struct {
	ID            int     `json:"id" db:"id"`
	MatchID       int     `json:"match_id" db:"match_id"`
	ParticipantID string  `json:"participant_id" db:"participant_id"`
	TeamID        *string `json:"team_id,omitempty" db:"team_id"`
	Placement     int     `json:"placement" db:"placement"`
	IsTied        bool    `json:"is_tied" db:"is_tied"`
	RatingBefore  int     `json:"rating_before" db:"rating_before"`
	RatingAfter   int     `json:"rating_after" db:"rating_after"`
	RatingChange  int     `json:"rating_change" db:"rating_change"`
}

// Reversed reports whether the match has been undone.
func (m *Match) Reversed() bool {
	return m.DeletedAt != nil
}
