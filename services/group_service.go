package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/elo-ledger/models"
	"github.com/Dosada05/elo-ledger/repositories"
	"github.com/Dosada05/elo-ledger/storage"
	"github.com/google/uuid"
)

// GroupService manages groups and their members. Membership rows bind
// opaque participant keys to the group; the rating core only ever sees
// those keys.
type GroupService interface {
	Create(ctx context.Context, ownerID int, name string) (*models.Group, error)
	GetByID(ctx context.Context, groupID int) (*models.Group, error)
	ListForUser(ctx context.Context, userID int) ([]*models.Group, error)
	// AddMember registers a participant key. userID nil creates a
	// virtual member (no account yet).
	AddMember(ctx context.Context, groupID int, displayName string, userID *int) (*models.GroupMember, error)
	// EnsureUserMember is the membership gate run before ledger calls.
	EnsureUserMember(ctx context.Context, groupID, userID int) error
	UploadLogo(ctx context.Context, groupID int, contentType string, content io.Reader) (*models.Group, error)
}

type groupService struct {
	groupRepo repositories.GroupRepository
	userRepo  repositories.UserRepository
	uploader  storage.FileUploader
}

func NewGroupService(
	groupRepo repositories.GroupRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) GroupService {
	return &groupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		uploader:  uploader,
	}
}

func (s *groupService) Create(ctx context.Context, ownerID int, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	group := &models.Group{Name: name, OwnerID: owner.ID}
	if err := s.groupRepo.Create(ctx, nil, group); err != nil {
		return nil, err
	}

	// The owner participates too.
	member := &models.GroupMember{
		GroupID:       group.ID,
		ParticipantID: uuid.NewString(),
		UserID:        &owner.ID,
		DisplayName:   owner.Name,
	}
	if err := s.groupRepo.AddMember(ctx, nil, member); err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}
	group.Members = []models.GroupMember{*member}
	return group, nil
}

func (s *groupService) GetByID(ctx context.Context, groupID int) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	members, err := s.groupRepo.ListMembers(ctx, nil, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = make([]models.GroupMember, 0, len(members))
	for _, m := range members {
		group.Members = append(group.Members, *m)
	}
	s.populateLogoURL(group)
	return group, nil
}

func (s *groupService) ListForUser(ctx context.Context, userID int) ([]*models.Group, error) {
	groups, err := s.groupRepo.ListByMemberUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		s.populateLogoURL(g)
	}
	return groups, nil
}

func (s *groupService) AddMember(ctx context.Context, groupID int, displayName string, userID *int) (*models.GroupMember, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidationFailed)
	}
	if _, err := s.groupRepo.GetByID(ctx, nil, groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if userID != nil {
		if _, err := s.userRepo.GetByID(ctx, *userID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
	}

	member := &models.GroupMember{
		GroupID:       groupID,
		ParticipantID: uuid.NewString(),
		UserID:        userID,
		DisplayName:   displayName,
	}
	if err := s.groupRepo.AddMember(ctx, nil, member); err != nil {
		if errors.Is(err, repositories.ErrGroupMemberConflict) {
			return nil, ErrMemberConflict
		}
		return nil, err
	}
	return member, nil
}

func (s *groupService) EnsureUserMember(ctx context.Context, groupID, userID int) error {
	ok, err := s.groupRepo.IsUserMember(ctx, nil, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotGroupMember
	}
	return nil
}

func (s *groupService) UploadLogo(ctx context.Context, groupID int, contentType string, content io.Reader) (*models.Group, error) {
	if s.uploader == nil {
		return nil, ErrUploaderDisabled
	}
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	key := fmt.Sprintf("groups/%d/logo-%s%s", group.ID, uuid.NewString(), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload group logo: %w", err)
	}
	if err := s.groupRepo.UpdateLogoKey(ctx, nil, group.ID, &result.Key); err != nil {
		return nil, err
	}

	if group.LogoKey != nil && *group.LogoKey != "" {
		// Best effort: the old object is orphaned otherwise.
		_ = s.uploader.Delete(ctx, *group.LogoKey)
	}
	group.LogoKey = &result.Key
	s.populateLogoURL(group)
	return group, nil
}

func (s *groupService) populateLogoURL(group *models.Group) {
	if group == nil || group.LogoKey == nil || *group.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*group.LogoKey); url != "" {
		group.LogoURL = &url
	}
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported logo content type %q", contentType)
	}
}
