package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrdering(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.matches.Apply(ctx, individualInput("alice", "bob", "carol"))
	require.NoError(t, err)

	leaderboard, err := f.ratings.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, leaderboard, 3)
	assert.Equal(t, "alice", leaderboard[0].ParticipantID)
	assert.Equal(t, "carol", leaderboard[2].ParticipantID)

	_, err = f.ratings.Leaderboard(ctx, 42)
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)
	_, err = f.matches.Apply(ctx, individualInput("bob", "alice"))
	require.NoError(t, err)

	history, err := f.ratings.History(ctx, 1, "alice", 0, false)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Less(t, history[0].RatingChange, 0)
	assert.Greater(t, history[1].RatingChange, 0)
	// Before/after chains across entries.
	assert.Equal(t, history[1].RatingAfter, history[0].RatingBefore)
}

func TestOverviewBundlesSeasonState(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.matches.Apply(ctx, individualInput("alice", "bob"))
	require.NoError(t, err)
	_, err = f.matches.Apply(ctx, individualInput("carol", "dave"))
	require.NoError(t, err)

	overview, err := f.ratings.Overview(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, overview.Season)
	assert.Equal(t, 1, overview.Season.ID)
	assert.Len(t, overview.Leaderboard, 4)
	assert.Len(t, overview.RecentMatches, 2)

	_, err = f.ratings.Overview(ctx, 42)
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}
