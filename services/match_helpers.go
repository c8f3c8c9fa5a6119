package services

import (
	"fmt"

	"github.com/Dosada05/elo-ledger/models"
)

type outcomeKind int

const (
	outcomeWin outcomeKind = iota
	outcomeLoss
	outcomeDraw
)

// classifyOutcome decides which of wins/losses/draws an outcome counts
// towards. Win is placement 1, loss is the worst placement present.
// When both hold at once the whole field tied at placement 1, which
// counts as a draw. Anything in between (middle placements, interior
// tie groups) is a draw as well, keeping wins+losses+draws equal to
// games played for every match shape.
func classifyOutcome(placement, maxPlacement int) outcomeKind {
	isWin := placement == 1
	isLoss := placement == maxPlacement
	switch {
	case isWin && isLoss:
		return outcomeDraw
	case isWin:
		return outcomeWin
	case isLoss:
		return outcomeLoss
	default:
		return outcomeDraw
	}
}

// validateApplyInput is the shared precondition gate: it rejects every
// malformed report before any storage access happens.
func validateApplyInput(input ApplyMatchInput) (models.MatchMode, error) {
	hasEntrants := len(input.Entrants) > 0
	hasTeams := len(input.Teams) > 0
	if hasEntrants && hasTeams {
		return "", ErrMixedEntrantModes
	}

	seen := make(map[string]struct{})
	checkDuplicate := func(id string) error {
		if id == "" {
			return fmt.Errorf("%w: empty participant id", ErrValidationFailed)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	if hasEntrants {
		if len(input.Entrants) < 2 {
			return "", ErrTooFewEntrants
		}
		for _, e := range input.Entrants {
			if err := checkDuplicate(e.ParticipantID); err != nil {
				return "", err
			}
		}
		return models.MatchModeIndividual, nil
	}

	if !hasTeams {
		return "", ErrTooFewEntrants
	}
	if len(input.Teams) < 2 {
		return "", ErrTooFewTeams
	}
	teamIDs := make(map[string]struct{})
	for _, t := range input.Teams {
		if t.TeamID == "" {
			return "", fmt.Errorf("%w: empty team id", ErrValidationFailed)
		}
		if _, ok := teamIDs[t.TeamID]; ok {
			return "", fmt.Errorf("%w: duplicate team %s", ErrValidationFailed, t.TeamID)
		}
		teamIDs[t.TeamID] = struct{}{}
		if len(t.MemberIDs) == 0 {
			return "", fmt.Errorf("%w: team %s", ErrEmptyTeam, t.TeamID)
		}
		for _, id := range t.MemberIDs {
			if err := checkDuplicate(id); err != nil {
				return "", err
			}
		}
	}
	return models.MatchModeTeam, nil
}

// participantIDs lists every distinct participant of the report, in
// report order.
func participantIDs(input ApplyMatchInput) []string {
	ids := make([]string, 0)
	if len(input.Entrants) > 0 {
		for _, e := range input.Entrants {
			ids = append(ids, e.ParticipantID)
		}
		return ids
	}
	for _, t := range input.Teams {
		ids = append(ids, t.MemberIDs...)
	}
	return ids
}

// tiedPlacements reports which placement values are shared by more than
// one entrant.
func tiedPlacements(placements map[string]int) map[int]bool {
	counts := make(map[int]int, len(placements))
	for _, p := range placements {
		counts[p]++
	}
	tied := make(map[int]bool, len(counts))
	for p, n := range counts {
		tied[p] = n > 1
	}
	return tied
}

func maxOutcomePlacement(outcomes []models.MatchOutcome) int {
	max := 0
	for _, o := range outcomes {
		if o.Placement > max {
			max = o.Placement
		}
	}
	return max
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
