package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/elo-ledger/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyReversed = errors.New("match already reversed")
)

type MatchRepository interface {
	// Create inserts the match row and all of its outcome rows. Meant
	// to run inside the ledger transaction.
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// GetByID loads the match with its outcomes.
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// MarkReversed sets deleted_at, failing when it is already set so
	// double reversal cannot slip through concurrently.
	MarkReversed(ctx context.Context, exec SQLExecutor, id int, reversedAt time.Time) error
	// ListBySeason returns recent matches (outcomes included), newest
	// first, reversed ones too.
	ListBySeason(ctx context.Context, exec SQLExecutor, seasonID int, limit int) ([]*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)

	err := executor.QueryRowContext(ctx, `
		INSERT INTO matches (group_id, season_id, mode)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		match.GroupID, match.SeasonID, match.Mode,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for i := range match.Outcomes {
		o := &match.Outcomes[i]
		o.MatchID = match.ID
		err := executor.QueryRowContext(ctx, `
			INSERT INTO match_outcomes
				(match_id, participant_id, team_id, placement, is_tied, rating_before, rating_after, rating_change)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			o.MatchID, o.ParticipantID, o.TeamID, o.Placement, o.IsTied,
			o.RatingBefore, o.RatingAfter, o.RatingChange,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("failed to insert outcome for participant %s: %w", o.ParticipantID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)

	match := &models.Match{}
	err := executor.QueryRowContext(ctx, `
		SELECT id, group_id, season_id, mode, created_at, deleted_at
		FROM matches WHERE id = $1`, id,
	).Scan(&match.ID, &match.GroupID, &match.SeasonID, &match.Mode, &match.CreatedAt, &match.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}

	outcomes, err := r.outcomesByMatch(ctx, executor, []int{match.ID})
	if err != nil {
		return nil, err
	}
	match.Outcomes = outcomes[match.ID]
	return match, nil
}

func (r *postgresMatchRepository) MarkReversed(ctx context.Context, exec SQLExecutor, id int, reversedAt time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE matches SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL`,
		reversedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark match %d reversed: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyReversed)
}

func (r *postgresMatchRepository) ListBySeason(ctx context.Context, exec SQLExecutor, seasonID int, limit int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	if limit <= 0 {
		limit = 20
	}
	rows, err := executor.QueryContext(ctx, `
		SELECT id, group_id, season_id, mode, created_at, deleted_at
		FROM matches
		WHERE season_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for season %d: %w", seasonID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	ids := make([]int, 0)
	for rows.Next() {
		m := &models.Match{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SeasonID, &m.Mode, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
		ids = append(ids, m.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	outcomes, err := r.outcomesByMatch(ctx, executor, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		m.Outcomes = outcomes[m.ID]
	}
	return matches, nil
}

func (r *postgresMatchRepository) outcomesByMatch(ctx context.Context, exec SQLExecutor, matchIDs []int) (map[int][]models.MatchOutcome, error) {
	result := make(map[int][]models.MatchOutcome, len(matchIDs))
	if len(matchIDs) == 0 {
		return result, nil
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT id, match_id, participant_id, team_id, placement, is_tied, rating_before, rating_after, rating_change
		FROM match_outcomes
		WHERE match_id = ANY($1)
		ORDER BY placement ASC, participant_id ASC`,
		intArray(matchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query match outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.MatchOutcome
		if err := rows.Scan(&o.ID, &o.MatchID, &o.ParticipantID, &o.TeamID, &o.Placement,
			&o.IsTied, &o.RatingBefore, &o.RatingAfter, &o.RatingChange); err != nil {
			return nil, err
		}
		result[o.MatchID] = append(result[o.MatchID], o)
	}
	return result, rows.Err()
}
