package services

import (
	"context"
	"testing"

	"github.com/Dosada05/elo-ledger/elo"
	"github.com/Dosada05/elo-ledger/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerFixture wires a MatchService against in-memory fakes: one group
// (id 1) with four members and one open, active season (id 1).
type ledgerFixture struct {
	groupRepo  *fakeGroupRepo
	seasonRepo *fakeSeasonRepo
	ratingRepo *fakeRatingRepo
	matchRepo  *fakeMatchRepo
	changeRepo *fakeChangeRepo
	notifier   *fakeNotifier

	matches MatchService
	ratings RatingService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()

	f := &ledgerFixture{
		groupRepo:  newFakeGroupRepo(),
		seasonRepo: newFakeSeasonRepo(),
		ratingRepo: newFakeRatingRepo(),
		matchRepo:  newFakeMatchRepo(),
		notifier:   &fakeNotifier{},
	}
	f.changeRepo = newFakeChangeRepo(f.matchRepo)

	group := &models.Group{Name: "office foosball", OwnerID: 1}
	require.NoError(t, f.groupRepo.Create(ctx, nil, group))
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		require.NoError(t, f.groupRepo.AddMember(ctx, nil, &models.GroupMember{
			GroupID:       group.ID,
			ParticipantID: id,
			DisplayName:   id,
		}))
	}

	season := &models.Season{GroupID: group.ID, Name: "2026 spring"}
	require.NoError(t, f.seasonRepo.Create(ctx, nil, season))
	require.NoError(t, f.groupRepo.SetActiveSeason(ctx, nil, group.ID, &season.ID))

	f.matches = NewMatchService(
		fakeTxRunner{},
		f.groupRepo,
		f.seasonRepo,
		f.ratingRepo,
		f.matchRepo,
		f.changeRepo,
		elo.NewEngine(0, 0),
		elo.DefaultInitialRating,
		f.notifier,
		nil,
	)
	f.ratings = NewRatingService(f.seasonRepo, f.ratingRepo, f.matchRepo, f.changeRepo)
	return f
}

func (f *ledgerFixture) rating(t *testing.T, participantID string) *models.Rating {
	t.Helper()
	rt, err := f.ratingRepo.GetBySeasonAndParticipant(context.Background(), nil, 1, participantID)
	require.NoError(t, err)
	return rt
}

func individualInput(ids ...string) ApplyMatchInput {
	input := ApplyMatchInput{GroupID: 1, SeasonID: 1}
	for _, id := range ids {
		input.Entrants = append(input.Entrants, EntrantInput{ParticipantID: id})
	}
	return input
}

func TestApplyTwoPlayerBaseline(t *testing.T) {
	f := newLedgerFixture(t)

	match, err := f.matches.Apply(context.Background(), individualInput("alice", "bob"))
	require.NoError(t, err)
	require.Len(t, match.Outcomes, 2)

	byID := make(map[string]models.MatchOutcome)
	for _, o := range match.Outcomes {
		byID[o.ParticipantID] = o
	}
	assert.Equal(t, 1200, byID["alice"].RatingBefore)
	assert.Equal(t, 16, byID["alice"].RatingChange)
	assert.Equal(t, 1216, byID["alice"].RatingAfter)
	assert.Equal(t, -16, byID["bob"].RatingChange)
	assert.Equal(t, 1, byID["alice"].Placement)
	assert.Equal(t, 2, byID["bob"].Placement)
	assert.False(t, byID["alice"].IsTied)

	alice := f.rating(t, "alice")
	assert.Equal(t, 1216, alice.CurrentRating)
	assert.Equal(t, 1, alice.GamesPlayed)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 0, alice.Losses)

	bob := f.rating(t, "bob")
	assert.Equal(t, 1184, bob.CurrentRating)
	assert.Equal(t, 1, bob.Losses)

	group, err := f.groupRepo.GetByID(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, group.GameCount)
	season, err := f.seasonRepo.GetByID(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, season.GameCount)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "applied", f.notifier.events[0].kind)
}

func TestApplyThreeWayPlacements(t *testing.T) {
	f := newLedgerFixture(t)

	match, err := f.matches.Apply(context.Background(), individualInput("alice", "bob", "carol"))
	require.NoError(t, err)

	byID := make(map[string]models.MatchOutcome)
	for _, o := range match.Outcomes {
		byID[o.ParticipantID] = o
	}
	assert.Equal(t, 16, byID["alice"].RatingChange)
	assert.Equal(t, 0, byID["bob"].RatingChange)
	assert.Equal(t, -16, byID["carol"].RatingChange)

	// Placement 1 is a win, the worst placement a loss, the middle a draw.
	assert.Equal(t, 1, f.rating(t, "alice").Wins)
	assert.Equal(t, 1, f.rating(t, "bob").Draws)
	assert.Equal(t, 1, f.rating(t, "carol").Losses)
}

func TestApplyAllTiedCountsAsDraw(t *testing.T) {
	f := newLedgerFixture(t)

	input := ApplyMatchInput{
		GroupID:  1,
		SeasonID: 1,
		Entrants: []EntrantInput{
			{ParticipantID: "alice"},
			{ParticipantID: "bob", TiedWithPrev: true},
		},
	}
	match, err := f.matches.Apply(context.Background(), input)
	require.NoError(t, err)

	for _, o := range match.Outcomes {
		assert.Equal(t, 1, o.Placement)
		assert.True(t, o.IsTied)
		assert.Equal(t, 0, o.RatingChange)
	}
	alice := f.rating(t, "alice")
	assert.Equal(t, 1, alice.Draws)
	assert.Equal(t, 0, alice.Wins)
	assert.Equal(t, 0, alice.Losses)
}

func TestApplyValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ApplyMatchInput
		wantErr error
	}{
		{
			name:    "no entrants",
			input:   ApplyMatchInput{GroupID: 1, SeasonID: 1},
			wantErr: ErrTooFewEntrants,
		},
		{
			name:    "single entrant",
			input:   individualInput("alice"),
			wantErr: ErrTooFewEntrants,
		},
		{
			name:    "duplicate entrant",
			input:   individualInput("alice", "alice"),
			wantErr: ErrDuplicateParticipant,
		},
		{
			name:    "unknown participant",
			input:   individualInput("alice", "mallory"),
			wantErr: ErrUnknownParticipant,
		},
		{
			name: "mixed modes",
			input: ApplyMatchInput{
				GroupID:  1,
				SeasonID: 1,
				Entrants: []EntrantInput{{ParticipantID: "alice"}, {ParticipantID: "bob"}},
				Teams:    []TeamInput{{TeamID: "t1", MemberIDs: []string{"carol"}}},
			},
			wantErr: ErrMixedEntrantModes,
		},
		{
			name: "single team",
			input: ApplyMatchInput{
				GroupID:  1,
				SeasonID: 1,
				Teams:    []TeamInput{{TeamID: "t1", MemberIDs: []string{"alice"}}},
			},
			wantErr: ErrTooFewTeams,
		},
		{
			name: "empty team",
			input: ApplyMatchInput{
				GroupID:  1,
				SeasonID: 1,
				Teams: []TeamInput{
					{TeamID: "t1", MemberIDs: []string{"alice"}},
					{TeamID: "t2"},
				},
			},
			wantErr: ErrEmptyTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.matches.Apply(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing may have been written by any rejected report.
	assert.Empty(t, f.matchRepo.matches)
	assert.Empty(t, f.ratingRepo.ratings)
}

func TestApplyRejectsStaleSeason(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	// Rotate onto a second season; the old season id must be rejected.
	next := &models.Season{GroupID: 1, Name: "2026 summer"}
	require.NoError(t, f.seasonRepo.Create(ctx, nil, next))
	require.NoError(t, f.groupRepo.SetActiveSeason(ctx, nil, 1, &next.ID))

	_, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	assert.ErrorIs(t, err, ErrSeasonNotActive)
}

func TestApplyRejectsGroupWithoutActiveSeason(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.groupRepo.SetActiveSeason(ctx, nil, 1, nil))

	_, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	assert.ErrorIs(t, err, ErrNoActiveSeason)
}

func TestApplyRejectsClosedSeason(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	season := f.seasonRepo.seasons[1]
	season.Status = models.SeasonStatusClosed

	_, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	assert.ErrorIs(t, err, ErrSeasonClosed)
}

func TestApplyRetriesOnRatingRace(t *testing.T) {
	f := newLedgerFixture(t)
	f.ratingRepo.failUpdates = 1

	_, err := f.matches.Apply(context.Background(), individualInput("alice", "bob"))
	require.NoError(t, err)
	assert.Equal(t, 1216, f.rating(t, "alice").CurrentRating)
}

func TestApplyRetriesOnLostInsertRace(t *testing.T) {
	f := newLedgerFixture(t)
	f.ratingRepo.failCreates = 1

	// Two reports racing to create the same participant's first rating
	// row: the loser's insert conflicts, and the whole cycle must rerun
	// in a fresh transaction rather than surface a storage error.
	_, err := f.matches.Apply(context.Background(), individualInput("alice", "bob"))
	require.NoError(t, err)
	assert.Equal(t, 1216, f.rating(t, "alice").CurrentRating)
	assert.Equal(t, 1184, f.rating(t, "bob").CurrentRating)
}

func TestApplySurfacesExhaustedRetries(t *testing.T) {
	f := newLedgerFixture(t)
	f.ratingRepo.failUpdates = 100

	_, err := f.matches.Apply(context.Background(), individualInput("alice", "bob"))
	assert.ErrorIs(t, err, ErrRatingConflict)
}

func TestReverseRestoresRatings(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	match, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)

	reversed, err := f.matches.Reverse(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, reversed.Reversed())

	for _, id := range []string{"alice", "bob"} {
		rt := f.rating(t, id)
		assert.Equal(t, 1200, rt.CurrentRating, id)
		assert.Equal(t, 0, rt.GamesPlayed, id)
		assert.Equal(t, 0, rt.Wins, id)
		assert.Equal(t, 0, rt.Losses, id)
		assert.Equal(t, 0, rt.Draws, id)
	}

	group, err := f.groupRepo.GetByID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, group.GameCount)
	season, err := f.seasonRepo.GetByID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, season.GameCount)

	stored, err := f.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reversed())

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, "reversed", f.notifier.events[1].kind)
}

func TestReverseTwiceFails(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	match, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)
	_, err = f.matches.Reverse(ctx, match.ID)
	require.NoError(t, err)

	_, err = f.matches.Reverse(ctx, match.ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyReversed)

	_, err = f.matches.Reverse(ctx, 999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestReverseTouchesOnlyItsParticipants(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	first, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)
	_, err = f.matches.Apply(ctx, individualInput("carol", "dave"))
	require.NoError(t, err)

	_, err = f.matches.Reverse(ctx, first.ID)
	require.NoError(t, err)

	assert.Equal(t, 1200, f.rating(t, "alice").CurrentRating)
	assert.Equal(t, 1216, f.rating(t, "carol").CurrentRating)
	assert.Equal(t, 1, f.rating(t, "carol").GamesPlayed)
}

func TestReverseOutOfOrderSubtractsExactDelta(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	first, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)
	second, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)

	var firstDelta, secondDelta int
	for _, o := range first.Outcomes {
		if o.ParticipantID == "alice" {
			firstDelta = o.RatingChange
		}
	}
	for _, o := range second.Outcomes {
		if o.ParticipantID == "alice" {
			secondDelta = o.RatingChange
		}
	}

	// Reversing the older match first removes exactly its delta; the
	// newer match's contribution stays in place.
	_, err = f.matches.Reverse(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200+secondDelta, f.rating(t, "alice").CurrentRating)
	assert.NotEqual(t, firstDelta, secondDelta)
}

func TestReverseKeepsAuditRows(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	match, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)
	_, err = f.matches.Reverse(ctx, match.ID)
	require.NoError(t, err)

	withReversed, err := f.ratings.History(ctx, 1, "alice", 0, true)
	require.NoError(t, err)
	require.Len(t, withReversed, 1)
	assert.True(t, withReversed[0].MatchDeleted)
	assert.Equal(t, 16, withReversed[0].RatingChange)

	visible, err := f.ratings.History(ctx, 1, "alice", 0, false)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestTeamApplyFansOutDeltas(t *testing.T) {
	f := newLedgerFixture(t)

	input := ApplyMatchInput{
		GroupID:  1,
		SeasonID: 1,
		Teams: []TeamInput{
			{TeamID: "red", MemberIDs: []string{"alice", "bob"}},
			{TeamID: "blue", MemberIDs: []string{"carol", "dave"}},
		},
	}
	match, err := f.matches.Apply(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, match.Outcomes, 4)

	for _, o := range match.Outcomes {
		require.NotNil(t, o.TeamID)
		switch *o.TeamID {
		case "red":
			assert.Equal(t, 16, o.RatingChange)
			assert.Equal(t, 1, o.Placement)
		case "blue":
			assert.Equal(t, -16, o.RatingChange)
			assert.Equal(t, 2, o.Placement)
		}
	}

	assert.Equal(t, 1, f.rating(t, "alice").Wins)
	assert.Equal(t, 1, f.rating(t, "carol").Losses)
}

func TestApplyUnknownGroupAndSeason(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	input := individualInput("alice", "bob")
	input.GroupID = 42
	_, err := f.matches.Apply(ctx, input)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	input = individualInput("alice", "bob")
	input.SeasonID = 42
	_, err = f.matches.Apply(ctx, input)
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}
