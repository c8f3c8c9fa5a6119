package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/elo-ledger/models"
	"github.com/Dosada05/elo-ledger/repositories"
	"golang.org/x/sync/errgroup"
)

// SeasonOverview bundles what the season dashboard shows in one payload.
type SeasonOverview struct {
	Season        *models.Season   `json:"season"`
	Leaderboard   []*models.Rating `json:"leaderboard"`
	RecentMatches []*models.Match  `json:"recent_matches"`
}

// RatingService is the read-only query surface over ratings and the
// audit trail. It never mutates anything.
type RatingService interface {
	Leaderboard(ctx context.Context, seasonID int) ([]*models.Rating, error)
	// History returns a participant's rating changes newest first. When
	// includeReversed is false, changes whose parent match was reversed
	// are filtered out so naive delta sums stay consistent.
	History(ctx context.Context, seasonID int, participantID string, limit int, includeReversed bool) ([]*models.RatingChange, error)
	Overview(ctx context.Context, seasonID int) (*SeasonOverview, error)
}

type ratingService struct {
	seasonRepo repositories.SeasonRepository
	ratingRepo repositories.RatingRepository
	matchRepo  repositories.MatchRepository
	changeRepo repositories.RatingChangeRepository
}

func NewRatingService(
	seasonRepo repositories.SeasonRepository,
	ratingRepo repositories.RatingRepository,
	matchRepo repositories.MatchRepository,
	changeRepo repositories.RatingChangeRepository,
) RatingService {
	return &ratingService{
		seasonRepo: seasonRepo,
		ratingRepo: ratingRepo,
		matchRepo:  matchRepo,
		changeRepo: changeRepo,
	}
}

func (s *ratingService) Leaderboard(ctx context.Context, seasonID int) ([]*models.Rating, error) {
	if _, err := s.getSeason(ctx, seasonID); err != nil {
		return nil, err
	}
	ratings, err := s.ratingRepo.ListBySeason(ctx, nil, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for season %d: %w", seasonID, err)
	}
	return ratings, nil
}

func (s *ratingService) History(ctx context.Context, seasonID int, participantID string, limit int, includeReversed bool) ([]*models.RatingChange, error) {
	changes, err := s.changeRepo.ListByParticipant(ctx, nil, seasonID, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for s:%d p:%s: %w", seasonID, participantID, err)
	}
	if includeReversed {
		return changes, nil
	}
	filtered := make([]*models.RatingChange, 0, len(changes))
	for _, c := range changes {
		if !c.MatchDeleted {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (s *ratingService) Overview(ctx context.Context, seasonID int) (*SeasonOverview, error) {
	season, err := s.getSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	overview := &SeasonOverview{Season: season}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ratings, err := s.ratingRepo.ListBySeason(gCtx, nil, seasonID)
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}
		overview.Leaderboard = ratings
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListBySeason(gCtx, nil, seasonID, 10)
		if err != nil {
			return fmt.Errorf("failed to load recent matches: %w", err)
		}
		overview.RecentMatches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *ratingService) getSeason(ctx context.Context, seasonID int) (*models.Season, error) {
	season, err := s.seasonRepo.GetByID(ctx, nil, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return season, nil
}
