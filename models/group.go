package models

import "time"

// Group is one recurring competition circle (a board game club, a office
// foosball league, ...). GameCount counts applied, non-reversed matches
// across all of the group's seasons.
type Group struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	OwnerID        int       `json:"owner_id" db:"owner_id"`
	GameCount      int       `json:"game_count" db:"game_count"`
	ActiveSeasonID *int      `json:"active_season_id,omitempty" db:"active_season_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Members []GroupMember `json:"members,omitempty" db:"-"`
}

// GroupMember links an opaque participant key to a group. UserID is nil
// for virtual members (players without an account); merging a virtual
// member into a real account later rewrites this row outside the rating
// core, which only requires the key to be stable within one match.
type GroupMember struct {
	ID            int       `json:"id" db:"id"`
	GroupID       int       `json:"group_id" db:"group_id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	UserID        *int      `json:"user_id,omitempty" db:"user_id"`
	DisplayName   string    `json:"display_name" db:"display_name"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
