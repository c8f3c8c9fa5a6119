package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/elo-ledger/models"
)

var ErrSeasonNotFound = errors.New("season not found")

type SeasonRepository interface {
	Create(ctx context.Context, exec SQLExecutor, season *models.Season) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Season, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Season, error)
	Close(ctx context.Context, exec SQLExecutor, id int, closedAt time.Time) error
	// AdjustGameCount moves the season's applied-match counter by delta
	// (+1 on apply, -1 on reverse), floored at zero.
	AdjustGameCount(ctx context.Context, exec SQLExecutor, id int, delta int) error
}

type postgresSeasonRepository struct {
	db *sql.DB
}

func NewPostgresSeasonRepository(db *sql.DB) SeasonRepository {
	return &postgresSeasonRepository{db: db}
}

func (r *postgresSeasonRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scanSeason(rowScanner interface{ Scan(...interface{}) error }) (*models.Season, error) {
	var s models.Season
	err := rowScanner.Scan(&s.ID, &s.GroupID, &s.Name, &s.Status, &s.GameCount, &s.CreatedAt, &s.ClosedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSeasonRepository) Create(ctx context.Context, exec SQLExecutor, season *models.Season) error {
	executor := r.getExecutor(exec)
	if season.Status == "" {
		season.Status = models.SeasonStatusOpen
	}
	err := executor.QueryRowContext(ctx, `
		INSERT INTO seasons (group_id, name, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		season.GroupID, season.Name, season.Status,
	).Scan(&season.ID, &season.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert season: %w", err)
	}
	return nil
}

func (r *postgresSeasonRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Season, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, group_id, name, status, game_count, created_at, closed_at FROM seasons WHERE id = $1`
	return scanSeason(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresSeasonRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Season, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, group_id, name, status, game_count, created_at, closed_at
		FROM seasons
		WHERE group_id = $1
		ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons for group %d: %w", groupID, err)
	}
	defer rows.Close()

	seasons := make([]*models.Season, 0)
	for rows.Next() {
		s, errScan := scanSeason(rows)
		if errScan != nil {
			return nil, errScan
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

func (r *postgresSeasonRepository) Close(ctx context.Context, exec SQLExecutor, id int, closedAt time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE seasons SET status = $1, closed_at = $2
		WHERE id = $3 AND status = $4`,
		models.SeasonStatusClosed, closedAt, id, models.SeasonStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to close season %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSeasonNotFound)
}

func (r *postgresSeasonRepository) AdjustGameCount(ctx context.Context, exec SQLExecutor, id int, delta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE seasons SET game_count = GREATEST(game_count + $1, 0)
		WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust game count for season %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSeasonNotFound)
}
