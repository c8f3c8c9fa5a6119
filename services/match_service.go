package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/elo-ledger/elo"
	"github.com/Dosada05/elo-ledger/models"
	"github.com/Dosada05/elo-ledger/repositories"
)

// maxApplyAttempts bounds the optimistic-concurrency retry of a whole
// read-compute-write cycle before the conflict is surfaced to the caller.
const maxApplyAttempts = 3

// EntrantInput is one individual entrant as reported by the client,
// listed best first; TiedWithPrev declares a tie with the entry above.
type EntrantInput struct {
	ParticipantID string `json:"participant_id"`
	TiedWithPrev  bool   `json:"tied_with_prev"`
}

// TeamInput is one team entry as reported by the client, best first.
type TeamInput struct {
	TeamID       string   `json:"team_id"`
	MemberIDs    []string `json:"member_ids"`
	TiedWithPrev bool     `json:"tied_with_prev"`
}

// ApplyMatchInput carries one complete, final match report. Exactly one
// of Entrants or Teams must be set.
type ApplyMatchInput struct {
	GroupID  int            `json:"group_id"`
	SeasonID int            `json:"season_id"`
	Entrants []EntrantInput `json:"entrants,omitempty"`
	Teams    []TeamInput    `json:"teams,omitempty"`
}

// MatchNotifier receives post-commit notifications about ledger writes.
// Implementations must not block; failures are the notifier's problem.
type MatchNotifier interface {
	MatchApplied(match *models.Match, leaderboard []*models.Rating)
	MatchReversed(match *models.Match, leaderboard []*models.Rating)
}

// MatchService is the ledger: the only component that mutates ratings.
// Apply and Reverse are all-or-nothing from the caller's point of view.
type MatchService interface {
	Apply(ctx context.Context, input ApplyMatchInput) (*models.Match, error)
	Reverse(ctx context.Context, matchID int) (*models.Match, error)
	GetByID(ctx context.Context, matchID int) (*models.Match, error)
	ListBySeason(ctx context.Context, seasonID int, limit int) ([]*models.Match, error)
}

type matchService struct {
	txRunner   repositories.TxRunner
	groupRepo  repositories.GroupRepository
	seasonRepo repositories.SeasonRepository
	ratingRepo repositories.RatingRepository
	matchRepo  repositories.MatchRepository
	changeRepo repositories.RatingChangeRepository

	engine        *elo.Engine
	initialRating int
	notifier      MatchNotifier
	logger        *slog.Logger
}

func NewMatchService(
	txRunner repositories.TxRunner,
	groupRepo repositories.GroupRepository,
	seasonRepo repositories.SeasonRepository,
	ratingRepo repositories.RatingRepository,
	matchRepo repositories.MatchRepository,
	changeRepo repositories.RatingChangeRepository,
	engine *elo.Engine,
	initialRating int,
	notifier MatchNotifier,
	logger *slog.Logger,
) MatchService {
	if initialRating <= 0 {
		initialRating = elo.DefaultInitialRating
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		txRunner:      txRunner,
		groupRepo:     groupRepo,
		seasonRepo:    seasonRepo,
		ratingRepo:    ratingRepo,
		matchRepo:     matchRepo,
		changeRepo:    changeRepo,
		engine:        engine,
		initialRating: initialRating,
		notifier:      notifier,
		logger:        logger,
	}
}

// Apply validates the report, computes deltas from a consistent rating
// snapshot and commits match + outcomes + audit rows + rating updates +
// game counters as one transaction. A lost rating compare-and-swap race
// rolls the transaction back and reruns the whole cycle against fresh
// ratings, up to maxApplyAttempts.
func (s *matchService) Apply(ctx context.Context, input ApplyMatchInput) (*models.Match, error) {
	mode, err := validateApplyInput(input)
	if err != nil {
		return nil, err
	}

	group, season, err := s.loadOpenSeason(ctx, input.GroupID, input.SeasonID)
	if err != nil {
		return nil, err
	}

	known, err := s.groupRepo.MemberParticipantIDs(ctx, nil, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	for _, id := range participantIDs(input) {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
		}
	}

	var match *models.Match
	for attempt := 1; ; attempt++ {
		match, err = s.applyOnce(ctx, group, season, mode, input)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrRatingVersionConflict) {
			return nil, err
		}
		if attempt >= maxApplyAttempts {
			s.logger.Warn("apply retries exhausted",
				slog.Int("group_id", group.ID),
				slog.Int("season_id", season.ID),
				slog.Int("attempts", attempt))
			return nil, ErrRatingConflict
		}
		s.logger.Debug("apply lost rating race, retrying",
			slog.Int("season_id", season.ID),
			slog.Int("attempt", attempt))
	}

	s.notifyApplied(ctx, match)
	return match, nil
}

func (s *matchService) applyOnce(ctx context.Context, group *models.Group, season *models.Season, mode models.MatchMode, input ApplyMatchInput) (*models.Match, error) {
	match := &models.Match{
		GroupID:  group.ID,
		SeasonID: season.ID,
		Mode:     mode,
	}

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Snapshot every participant's rating inside the transaction,
		// lazily creating first-timers at the initial rating.
		ratings := make(map[string]*models.Rating)
		for _, id := range participantIDs(input) {
			rt, err := s.ratingRepo.GetOrCreate(ctx, exec, season.ID, id, s.initialRating)
			if err != nil {
				return err
			}
			ratings[id] = rt
		}

		outcomes, err := s.computeOutcomes(mode, input, ratings)
		if err != nil {
			return err
		}
		match.Outcomes = outcomes

		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return err
		}

		changes := make([]*models.RatingChange, 0, len(match.Outcomes))
		for _, o := range match.Outcomes {
			changes = append(changes, &models.RatingChange{
				MatchID:       match.ID,
				GroupID:       group.ID,
				SeasonID:      season.ID,
				ParticipantID: o.ParticipantID,
				Placement:     o.Placement,
				IsTied:        o.IsTied,
				RatingBefore:  o.RatingBefore,
				RatingAfter:   o.RatingAfter,
				RatingChange:  o.RatingChange,
			})
		}
		if err := s.changeRepo.BatchCreate(ctx, exec, changes); err != nil {
			return err
		}

		maxPlacement := maxOutcomePlacement(match.Outcomes)
		for _, o := range match.Outcomes {
			rt := ratings[o.ParticipantID]
			rt.CurrentRating = o.RatingAfter
			rt.GamesPlayed++
			switch classifyOutcome(o.Placement, maxPlacement) {
			case outcomeWin:
				rt.Wins++
			case outcomeLoss:
				rt.Losses++
			default:
				rt.Draws++
			}
			if err := s.ratingRepo.UpdateChecked(ctx, exec, rt); err != nil {
				return err
			}
		}

		if err := s.groupRepo.AdjustGameCount(ctx, exec, group.ID, 1); err != nil {
			return err
		}
		return s.seasonRepo.AdjustGameCount(ctx, exec, season.ID, 1)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// computeOutcomes resolves placements and runs the engine, producing one
// outcome per participant. Pure except for reading the rating snapshot.
func (s *matchService) computeOutcomes(mode models.MatchMode, input ApplyMatchInput, ratings map[string]*models.Rating) ([]models.MatchOutcome, error) {
	if mode == models.MatchModeIndividual {
		ranked := make([]elo.RankedEntrant, 0, len(input.Entrants))
		for _, e := range input.Entrants {
			ranked = append(ranked, elo.RankedEntrant{ID: e.ParticipantID, TiedWithPrev: e.TiedWithPrev})
		}
		placements := elo.ResolvePlacements(ranked)
		tied := tiedPlacements(placements)

		entrants := make([]elo.EngineEntrant, 0, len(ranked))
		for _, e := range ranked {
			rt := ratings[e.ID]
			entrants = append(entrants, elo.EngineEntrant{
				ID:          e.ID,
				Rating:      float64(rt.CurrentRating),
				GamesPlayed: rt.GamesPlayed,
				Placement:   placements[e.ID],
			})
		}

		outcomes := make([]models.MatchOutcome, 0, len(entrants))
		for _, d := range s.engine.ComputeDeltas(entrants) {
			rt := ratings[d.ID]
			outcomes = append(outcomes, models.MatchOutcome{
				ParticipantID: d.ID,
				Placement:     placements[d.ID],
				IsTied:        tied[placements[d.ID]],
				RatingBefore:  rt.CurrentRating,
				RatingAfter:   rt.CurrentRating + d.Change,
				RatingChange:  d.Change,
			})
		}
		return outcomes, nil
	}

	// Team mode: resolve placements over teams, rate one virtual entrant
	// per team, then fan the team delta out to every member equally.
	rankedTeams := make([]elo.RankedEntrant, 0, len(input.Teams))
	teams := make([]elo.TeamEntry, 0, len(input.Teams))
	for _, t := range input.Teams {
		rankedTeams = append(rankedTeams, elo.RankedEntrant{ID: t.TeamID, TiedWithPrev: t.TiedWithPrev})
		members := make([]elo.TeamMember, 0, len(t.MemberIDs))
		for _, id := range t.MemberIDs {
			rt := ratings[id]
			members = append(members, elo.TeamMember{
				ID:          id,
				Rating:      rt.CurrentRating,
				GamesPlayed: rt.GamesPlayed,
			})
		}
		teams = append(teams, elo.TeamEntry{TeamID: t.TeamID, Members: members, TiedWithPrev: t.TiedWithPrev})
	}
	placements := elo.ResolvePlacements(rankedTeams)
	tied := tiedPlacements(placements)

	virtual, err := elo.ExpandTeams(teams, placements)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	memberChanges := elo.FanOutTeamDeltas(teams, s.engine.ComputeDeltas(virtual))

	outcomes := make([]models.MatchOutcome, 0)
	for _, t := range input.Teams {
		teamID := t.TeamID
		for _, id := range t.MemberIDs {
			rt := ratings[id]
			change := memberChanges[id]
			outcomes = append(outcomes, models.MatchOutcome{
				ParticipantID: id,
				TeamID:        &teamID,
				Placement:     placements[teamID],
				IsTied:        tied[placements[teamID]],
				RatingBefore:  rt.CurrentRating,
				RatingAfter:   rt.CurrentRating + change,
				RatingChange:  change,
			})
		}
	}
	return outcomes, nil
}

// Reverse undoes a previously applied match: deltas are subtracted,
// counters decremented (floored at zero against data drift) and the
// match soft-deleted. Audit rows stay untouched. Reversing out of order
// is well defined because deltas are plain addition, though counters in
// between will show the ghost of the deleted match.
func (s *matchService) Reverse(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Reversed() {
		return nil, ErrMatchAlreadyReversed
	}

	for attempt := 1; ; attempt++ {
		err = s.reverseOnce(ctx, match)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrMatchAlreadyReversed) {
			return nil, ErrMatchAlreadyReversed
		}
		if !errors.Is(err, repositories.ErrRatingVersionConflict) {
			return nil, err
		}
		if attempt >= maxApplyAttempts {
			return nil, ErrRatingConflict
		}
	}

	s.notifyReversed(ctx, match)
	return match, nil
}

func (s *matchService) reverseOnce(ctx context.Context, match *models.Match) error {
	reversedAt := time.Now().UTC()
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// The guarded update doubles as a lock against a concurrent
		// reversal of the same match.
		if err := s.matchRepo.MarkReversed(ctx, exec, match.ID, reversedAt); err != nil {
			return err
		}

		maxPlacement := maxOutcomePlacement(match.Outcomes)
		for _, o := range match.Outcomes {
			rt, err := s.ratingRepo.GetBySeasonAndParticipant(ctx, exec, match.SeasonID, o.ParticipantID)
			if err != nil {
				return fmt.Errorf("failed to load rating for reversal of match %d: %w", match.ID, err)
			}
			rt.CurrentRating -= o.RatingChange
			rt.GamesPlayed = floorZero(rt.GamesPlayed - 1)
			switch classifyOutcome(o.Placement, maxPlacement) {
			case outcomeWin:
				rt.Wins = floorZero(rt.Wins - 1)
			case outcomeLoss:
				rt.Losses = floorZero(rt.Losses - 1)
			default:
				rt.Draws = floorZero(rt.Draws - 1)
			}
			if err := s.ratingRepo.UpdateChecked(ctx, exec, rt); err != nil {
				return err
			}
		}

		if err := s.groupRepo.AdjustGameCount(ctx, exec, match.GroupID, -1); err != nil {
			return err
		}
		return s.seasonRepo.AdjustGameCount(ctx, exec, match.SeasonID, -1)
	})
	if err != nil {
		return err
	}
	match.DeletedAt = &reversedAt
	return nil
}

func (s *matchService) GetByID(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListBySeason(ctx context.Context, seasonID int, limit int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListBySeason(ctx, nil, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for season %d: %w", seasonID, err)
	}
	return matches, nil
}

func (s *matchService) loadOpenSeason(ctx context.Context, groupID, seasonID int) (*models.Group, *models.Season, error) {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, nil, ErrGroupNotFound
		}
		return nil, nil, err
	}
	season, err := s.seasonRepo.GetByID(ctx, nil, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, nil, ErrSeasonNotFound
		}
		return nil, nil, err
	}
	if group.ActiveSeasonID == nil {
		return nil, nil, ErrNoActiveSeason
	}
	// A stale client retrying against a rotated season must fail loudly
	// instead of silently rating the wrong pool.
	if season.GroupID != group.ID || *group.ActiveSeasonID != season.ID {
		return nil, nil, ErrSeasonNotActive
	}
	if season.Status != models.SeasonStatusOpen {
		return nil, nil, ErrSeasonClosed
	}
	return group, season, nil
}

func (s *matchService) notifyApplied(ctx context.Context, match *models.Match) {
	if s.notifier == nil {
		return
	}
	leaderboard, err := s.ratingRepo.ListBySeason(ctx, nil, match.SeasonID)
	if err != nil {
		s.logger.Warn("failed to load leaderboard for broadcast", slog.Any("error", err))
		return
	}
	s.notifier.MatchApplied(match, leaderboard)
}

func (s *matchService) notifyReversed(ctx context.Context, match *models.Match) {
	if s.notifier == nil {
		return
	}
	leaderboard, err := s.ratingRepo.ListBySeason(ctx, nil, match.SeasonID)
	if err != nil {
		s.logger.Warn("failed to load leaderboard for broadcast", slog.Any("error", err))
		return
	}
	s.notifier.MatchReversed(match, leaderboard)
}
