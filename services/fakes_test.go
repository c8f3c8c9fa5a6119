package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/Dosada05/elo-ledger/models"
	"github.com/Dosada05/elo-ledger/repositories"
)

// In-memory repository fakes. They mimic the postgres implementations
// closely enough for service-level tests: copies in, copies out, the
// same sentinel errors, and a version check on rating writes.

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeGroupRepo struct {
	groups  map[int]*models.Group
	members map[int][]*models.GroupMember
	nextID  int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  make(map[int]*models.Group),
		members: make(map[int][]*models.GroupMember),
		nextID:  1,
	}
}

func (f *fakeGroupRepo) Create(ctx context.Context, exec repositories.SQLExecutor, group *models.Group) error {
	group.ID = f.nextID
	f.nextID++
	group.CreatedAt = time.Now()
	cp := *group
	f.groups[group.ID] = &cp
	return nil
}

func (f *fakeGroupRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGroupRepo) ListByMemberUser(ctx context.Context, exec repositories.SQLExecutor, userID int) ([]*models.Group, error) {
	var out []*models.Group
	for groupID, members := range f.members {
		for _, m := range members {
			if m.UserID != nil && *m.UserID == userID {
				cp := *f.groups[groupID]
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) SetActiveSeason(ctx context.Context, exec repositories.SQLExecutor, groupID int, seasonID *int) error {
	g, ok := f.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	g.ActiveSeasonID = seasonID
	return nil
}

func (f *fakeGroupRepo) UpdateLogoKey(ctx context.Context, exec repositories.SQLExecutor, groupID int, logoKey *string) error {
	g, ok := f.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	g.LogoKey = logoKey
	return nil
}

func (f *fakeGroupRepo) AdjustGameCount(ctx context.Context, exec repositories.SQLExecutor, groupID int, delta int) error {
	g, ok := f.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	g.GameCount += delta
	if g.GameCount < 0 {
		g.GameCount = 0
	}
	return nil
}

func (f *fakeGroupRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, member *models.GroupMember) error {
	for _, m := range f.members[member.GroupID] {
		if m.ParticipantID == member.ParticipantID {
			return repositories.ErrGroupMemberConflict
		}
	}
	member.ID = f.nextID
	f.nextID++
	cp := *member
	f.members[member.GroupID] = append(f.members[member.GroupID], &cp)
	return nil
}

func (f *fakeGroupRepo) ListMembers(ctx context.Context, exec repositories.SQLExecutor, groupID int) ([]*models.GroupMember, error) {
	var out []*models.GroupMember
	for _, m := range f.members[groupID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeGroupRepo) MemberParticipantIDs(ctx context.Context, exec repositories.SQLExecutor, groupID int) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, m := range f.members[groupID] {
		out[m.ParticipantID] = struct{}{}
	}
	return out, nil
}

func (f *fakeGroupRepo) IsUserMember(ctx context.Context, exec repositories.SQLExecutor, groupID, userID int) (bool, error) {
	for _, m := range f.members[groupID] {
		if m.UserID != nil && *m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSeasonRepo struct {
	seasons map[int]*models.Season
	nextID  int
}

func newFakeSeasonRepo() *fakeSeasonRepo {
	return &fakeSeasonRepo{seasons: make(map[int]*models.Season), nextID: 1}
}

func (f *fakeSeasonRepo) Create(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) error {
	season.ID = f.nextID
	f.nextID++
	season.Status = models.SeasonStatusOpen
	season.CreatedAt = time.Now()
	cp := *season
	f.seasons[season.ID] = &cp
	return nil
}

func (f *fakeSeasonRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Season, error) {
	s, ok := f.seasons[id]
	if !ok {
		return nil, repositories.ErrSeasonNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSeasonRepo) ListByGroup(ctx context.Context, exec repositories.SQLExecutor, groupID int) ([]*models.Season, error) {
	var out []*models.Season
	for _, s := range f.seasons {
		if s.GroupID == groupID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeSeasonRepo) Close(ctx context.Context, exec repositories.SQLExecutor, id int, closedAt time.Time) error {
	s, ok := f.seasons[id]
	if !ok {
		return repositories.ErrSeasonNotFound
	}
	s.Status = models.SeasonStatusClosed
	s.ClosedAt = &closedAt
	return nil
}

func (f *fakeSeasonRepo) AdjustGameCount(ctx context.Context, exec repositories.SQLExecutor, id int, delta int) error {
	s, ok := f.seasons[id]
	if !ok {
		return repositories.ErrSeasonNotFound
	}
	s.GameCount += delta
	if s.GameCount < 0 {
		s.GameCount = 0
	}
	return nil
}

type fakeRatingRepo struct {
	ratings map[string]*models.Rating
	nextID  int

	// failUpdates injects that many version conflicts into consecutive
	// UpdateChecked calls before letting writes through again.
	failUpdates int
	// failCreates does the same for GetOrCreate calls that would insert
	// a new row, mimicking a lost insert race on first appearance.
	failCreates int
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[string]*models.Rating), nextID: 1}
}

func ratingKey(seasonID int, participantID string) string {
	return strconv.Itoa(seasonID) + "/" + participantID
}

func (f *fakeRatingRepo) GetBySeasonAndParticipant(ctx context.Context, exec repositories.SQLExecutor, seasonID int, participantID string) (*models.Rating, error) {
	rt, ok := f.ratings[ratingKey(seasonID, participantID)]
	if !ok {
		return nil, repositories.ErrRatingNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeRatingRepo) GetOrCreate(ctx context.Context, exec repositories.SQLExecutor, seasonID int, participantID string, initialRating int) (*models.Rating, error) {
	key := ratingKey(seasonID, participantID)
	if rt, ok := f.ratings[key]; ok {
		cp := *rt
		return &cp, nil
	}
	if f.failCreates > 0 {
		f.failCreates--
		return nil, repositories.ErrRatingVersionConflict
	}
	rt := &models.Rating{
		ID:            f.nextID,
		SeasonID:      seasonID,
		ParticipantID: participantID,
		CurrentRating: initialRating,
		Version:       1,
	}
	f.nextID++
	f.ratings[key] = rt
	cp := *rt
	return &cp, nil
}

func (f *fakeRatingRepo) UpdateChecked(ctx context.Context, exec repositories.SQLExecutor, rating *models.Rating) error {
	if f.failUpdates > 0 {
		f.failUpdates--
		return repositories.ErrRatingVersionConflict
	}
	stored, ok := f.ratings[ratingKey(rating.SeasonID, rating.ParticipantID)]
	if !ok || stored.Version != rating.Version {
		return repositories.ErrRatingVersionConflict
	}
	cp := *rating
	cp.Version++
	*stored = cp
	rating.Version++
	return nil
}

func (f *fakeRatingRepo) ListBySeason(ctx context.Context, exec repositories.SQLExecutor, seasonID int) ([]*models.Rating, error) {
	var out []*models.Rating
	for _, rt := range f.ratings {
		if rt.SeasonID == seasonID {
			cp := *rt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentRating != out[j].CurrentRating {
			return out[i].CurrentRating > out[j].CurrentRating
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (f *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	match.ID = f.nextID
	f.nextID++
	match.CreatedAt = time.Now()
	for i := range match.Outcomes {
		match.Outcomes[i].MatchID = match.ID
	}
	cp := *match
	cp.Outcomes = append([]models.MatchOutcome(nil), match.Outcomes...)
	f.matches[match.ID] = &cp
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	cp.Outcomes = append([]models.MatchOutcome(nil), m.Outcomes...)
	return &cp, nil
}

func (f *fakeMatchRepo) MarkReversed(ctx context.Context, exec repositories.SQLExecutor, id int, reversedAt time.Time) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.DeletedAt != nil {
		return repositories.ErrMatchAlreadyReversed
	}
	m.DeletedAt = &reversedAt
	return nil
}

func (f *fakeMatchRepo) ListBySeason(ctx context.Context, exec repositories.SQLExecutor, seasonID int, limit int) ([]*models.Match, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*models.Match
	for _, m := range f.matches {
		if m.SeasonID == seasonID {
			cp := *m
			cp.Outcomes = append([]models.MatchOutcome(nil), m.Outcomes...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeChangeRepo struct {
	changes   []*models.RatingChange
	matchRepo *fakeMatchRepo
	nextID    int
}

func newFakeChangeRepo(matchRepo *fakeMatchRepo) *fakeChangeRepo {
	return &fakeChangeRepo{matchRepo: matchRepo, nextID: 1}
}

func (f *fakeChangeRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, changes []*models.RatingChange) error {
	for _, c := range changes {
		cp := *c
		cp.ID = f.nextID
		f.nextID++
		cp.CreatedAt = time.Now()
		f.changes = append(f.changes, &cp)
	}
	return nil
}

func (f *fakeChangeRepo) ListByParticipant(ctx context.Context, exec repositories.SQLExecutor, seasonID int, participantID string, limit int) ([]*models.RatingChange, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*models.RatingChange
	for _, c := range f.changes {
		if c.SeasonID != seasonID || c.ParticipantID != participantID {
			continue
		}
		cp := *c
		if m, ok := f.matchRepo.matches[c.MatchID]; ok {
			cp.MatchDeleted = m.DeletedAt != nil
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type notifierEvent struct {
	kind  string
	match *models.Match
}

type fakeNotifier struct {
	events []notifierEvent
}

func (f *fakeNotifier) MatchApplied(match *models.Match, leaderboard []*models.Rating) {
	f.events = append(f.events, notifierEvent{kind: "applied", match: match})
}

func (f *fakeNotifier) MatchReversed(match *models.Match, leaderboard []*models.Rating) {
	f.events = append(f.events, notifierEvent{kind: "reversed", match: match})
}
