package elo

import (
	"fmt"
	"math"
)

// TeamMember is one member of a team entry with the rating snapshot taken
// at apply time.
type TeamMember struct {
	ID          string
	Rating      int
	GamesPlayed int
}

// TeamEntry is one team in a reported team match, best first, with the
// same adjacency tie flag used for individual entrants.
type TeamEntry struct {
	TeamID       string
	Members      []TeamMember
	TiedWithPrev bool
}

// ExpandTeams maps each team onto one virtual entrant for the engine:
// the arithmetic mean of the member ratings, and the rounded mean of the
// member game counts (used only for the team's K factor). Placements are
// the already-resolved team placements keyed by team id.
//
// Teams without members would divide by zero; the ledger validates that
// before calling, so an empty team here is a programming error.
func ExpandTeams(teams []TeamEntry, placements map[string]int) ([]EngineEntrant, error) {
	virtual := make([]EngineEntrant, 0, len(teams))
	for _, t := range teams {
		if len(t.Members) == 0 {
			return nil, fmt.Errorf("team %s has no members", t.TeamID)
		}
		var ratingSum, gamesSum float64
		for _, m := range t.Members {
			ratingSum += float64(m.Rating)
			gamesSum += float64(m.GamesPlayed)
		}
		n := float64(len(t.Members))
		virtual = append(virtual, EngineEntrant{
			ID:          t.TeamID,
			Rating:      ratingSum / n,
			GamesPlayed: int(math.Round(gamesSum / n)),
			Placement:   placements[t.TeamID],
		})
	}
	return virtual, nil
}

// FanOutTeamDeltas distributes each team's computed delta to its members.
// Every member receives the team delta verbatim, not a share scaled by
// individual rating. Returned deltas are keyed per member id.
func FanOutTeamDeltas(teams []TeamEntry, teamDeltas []Delta) map[string]int {
	byTeam := make(map[string]int, len(teamDeltas))
	for _, d := range teamDeltas {
		byTeam[d.ID] = d.Change
	}
	members := make(map[string]int)
	for _, t := range teams {
		change := byTeam[t.TeamID]
		for _, m := range t.Members {
			members[m.ID] = change
		}
	}
	return members
}
