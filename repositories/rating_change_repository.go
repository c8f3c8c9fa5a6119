package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/elo-ledger/models"
)

type RatingChangeRepository interface {
	// BatchCreate inserts one audit row per participant of an applied
	// match. Rows are permanent: reversal never touches them.
	BatchCreate(ctx context.Context, exec SQLExecutor, changes []*models.RatingChange) error
	// ListByParticipant returns the rating history of one participant
	// in a season, newest first, with MatchDeleted populated from the
	// parent match so consumers can filter reversed entries.
	ListByParticipant(ctx context.Context, exec SQLExecutor, seasonID int, participantID string, limit int) ([]*models.RatingChange, error)
}

type postgresRatingChangeRepository struct {
	db *sql.DB
}

func NewPostgresRatingChangeRepository(db *sql.DB) RatingChangeRepository {
	return &postgresRatingChangeRepository{db: db}
}

func (r *postgresRatingChangeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRatingChangeRepository) BatchCreate(ctx context.Context, exec SQLExecutor, changes []*models.RatingChange) error {
	executor := r.getExecutor(exec)
	for _, c := range changes {
		err := executor.QueryRowContext(ctx, `
			INSERT INTO rating_changes
				(match_id, group_id, season_id, participant_id, placement, is_tied,
				 rating_before, rating_after, rating_change)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at`,
			c.MatchID, c.GroupID, c.SeasonID, c.ParticipantID, c.Placement, c.IsTied,
			c.RatingBefore, c.RatingAfter, c.RatingChange,
		).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rating change for participant %s: %w", c.ParticipantID, err)
		}
	}
	return nil
}

func (r *postgresRatingChangeRepository) ListByParticipant(ctx context.Context, exec SQLExecutor, seasonID int, participantID string, limit int) ([]*models.RatingChange, error) {
	executor := r.getExecutor(exec)
	if limit <= 0 {
		limit = 50
	}
	rows, err := executor.QueryContext(ctx, `
		SELECT rc.id, rc.match_id, rc.group_id, rc.season_id, rc.participant_id,
		       rc.placement, rc.is_tied, rc.rating_before, rc.rating_after, rc.rating_change,
		       rc.created_at, m.deleted_at IS NOT NULL AS match_deleted
		FROM rating_changes rc
		JOIN matches m ON m.id = rc.match_id
		WHERE rc.season_id = $1 AND rc.participant_id = $2
		ORDER BY rc.created_at DESC, rc.id DESC
		LIMIT $3`,
		seasonID, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history for s:%d p:%s: %w", seasonID, participantID, err)
	}
	defer rows.Close()

	changes := make([]*models.RatingChange, 0)
	for rows.Next() {
		var c models.RatingChange
		if err := rows.Scan(&c.ID, &c.MatchID, &c.GroupID, &c.SeasonID, &c.ParticipantID,
			&c.Placement, &c.IsTied, &c.RatingBefore, &c.RatingAfter, &c.RatingChange,
			&c.CreatedAt, &c.MatchDeleted); err != nil {
			return nil, err
		}
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}
