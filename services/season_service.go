package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/elo-ledger/models"
	"github.com/Dosada05/elo-ledger/repositories"
)

// SeasonService rotates and reads seasons. Creating a season makes it
// the group's active season and closes the previous one; applied
// matches always target the active season only.
type SeasonService interface {
	Create(ctx context.Context, groupID int, name string) (*models.Season, error)
	GetByID(ctx context.Context, seasonID int) (*models.Season, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Season, error)
}

type seasonService struct {
	txRunner   repositories.TxRunner
	groupRepo  repositories.GroupRepository
	seasonRepo repositories.SeasonRepository
}

func NewSeasonService(
	txRunner repositories.TxRunner,
	groupRepo repositories.GroupRepository,
	seasonRepo repositories.SeasonRepository,
) SeasonService {
	return &seasonService{
		txRunner:   txRunner,
		groupRepo:  groupRepo,
		seasonRepo: seasonRepo,
	}
}

func (s *seasonService) Create(ctx context.Context, groupID int, name string) (*models.Season, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSeasonNameRequired
	}

	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	season := &models.Season{GroupID: group.ID, Name: name}
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// Season rotation is atomic: close the predecessor, open the
		// successor, repoint the group. A match applied against the old
		// season id from a stale client fails its active-season check.
		if group.ActiveSeasonID != nil {
			if err := s.seasonRepo.Close(ctx, exec, *group.ActiveSeasonID, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to close previous season %d: %w", *group.ActiveSeasonID, err)
			}
		}
		if err := s.seasonRepo.Create(ctx, exec, season); err != nil {
			return err
		}
		return s.groupRepo.SetActiveSeason(ctx, exec, group.ID, &season.ID)
	})
	if err != nil {
		return nil, err
	}
	return season, nil
}

func (s *seasonService) GetByID(ctx context.Context, seasonID int) (*models.Season, error) {
	season, err := s.seasonRepo.GetByID(ctx, nil, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return season, nil
}

func (s *seasonService) ListByGroup(ctx context.Context, groupID int) ([]*models.Season, error) {
	if _, err := s.groupRepo.GetByID(ctx, nil, groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return s.seasonRepo.ListByGroup(ctx, nil, groupID)
}
