package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/elo-ledger/models"
)

var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrGroupMemberNotFound = errors.New("group member not found")
	ErrGroupMemberConflict = errors.New("participant already in group")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Group, error)
	ListByMemberUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Group, error)
	SetActiveSeason(ctx context.Context, exec SQLExecutor, groupID int, seasonID *int) error
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, groupID int, logoKey *string) error
	// AdjustGameCount moves the group's applied-match counter by delta,
	// floored at zero.
	AdjustGameCount(ctx context.Context, exec SQLExecutor, groupID int, delta int) error

	AddMember(ctx context.Context, exec SQLExecutor, member *models.GroupMember) error
	ListMembers(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.GroupMember, error)
	// MemberParticipantIDs returns the set of participant keys known to
	// the group, for validating match entrants.
	MemberParticipantIDs(ctx context.Context, exec SQLExecutor, groupID int) (map[string]struct{}, error)
	IsUserMember(ctx context.Context, exec SQLExecutor, groupID, userID int) (bool, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	executor := r.getExecutor(exec)
	err := executor.QueryRowContext(ctx, `
		INSERT INTO groups (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		group.Name, group.OwnerID,
	).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Group, error) {
	executor := r.getExecutor(exec)
	g := &models.Group{}
	err := executor.QueryRowContext(ctx, `
		SELECT id, name, owner_id, game_count, active_season_id, logo_key, created_at
		FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.OwnerID, &g.GameCount, &g.ActiveSeasonID, &g.LogoKey, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGroupRepository) ListByMemberUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Group, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT g.id, g.name, g.owner_id, g.game_count, g.active_season_id, g.logo_key, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for user %d: %w", userID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.GameCount, &g.ActiveSeasonID, &g.LogoKey, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) SetActiveSeason(ctx context.Context, exec SQLExecutor, groupID int, seasonID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE groups SET active_season_id = $1 WHERE id = $2`, seasonID, groupID)
	if err != nil {
		return fmt.Errorf("failed to set active season for group %d: %w", groupID, err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, groupID int, logoKey *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE groups SET logo_key = $1 WHERE id = $2`, logoKey, groupID)
	if err != nil {
		return fmt.Errorf("failed to update logo for group %d: %w", groupID, err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) AdjustGameCount(ctx context.Context, exec SQLExecutor, groupID int, delta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE groups SET game_count = GREATEST(game_count + $1, 0)
		WHERE id = $2`, delta, groupID)
	if err != nil {
		return fmt.Errorf("failed to adjust game count for group %d: %w", groupID, err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.GroupMember) error {
	executor := r.getExecutor(exec)
	err := executor.QueryRowContext(ctx, `
		INSERT INTO group_members (group_id, participant_id, user_id, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		member.GroupID, member.ParticipantID, member.UserID, member.DisplayName,
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrGroupMemberConflict
		}
		return fmt.Errorf("failed to insert group member: %w", err)
	}
	return nil
}

func (r *postgresGroupRepository) ListMembers(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.GroupMember, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, group_id, participant_id, user_id, display_name, created_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY created_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for group %d: %w", groupID, err)
	}
	defer rows.Close()

	members := make([]*models.GroupMember, 0)
	for rows.Next() {
		m := &models.GroupMember{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.ParticipantID, &m.UserID, &m.DisplayName, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresGroupRepository) MemberParticipantIDs(ctx context.Context, exec SQLExecutor, groupID int) (map[string]struct{}, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT participant_id FROM group_members WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant ids for group %d: %w", groupID, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *postgresGroupRepository) IsUserMember(ctx context.Context, exec SQLExecutor, groupID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2
		)`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership for group %d user %d: %w", groupID, userID, err)
	}
	return exists, nil
}
