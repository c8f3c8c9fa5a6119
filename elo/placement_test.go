package elo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePlacements(t *testing.T) {
	cases := []struct {
		name     string
		entrants []RankedEntrant
		want     map[string]int
	}{
		{
			name:     "empty",
			entrants: nil,
			want:     map[string]int{},
		},
		{
			name:     "single entrant",
			entrants: []RankedEntrant{{ID: "a"}},
			want:     map[string]int{"a": 1},
		},
		{
			name: "no ties",
			entrants: []RankedEntrant{
				{ID: "a"}, {ID: "b"}, {ID: "c"},
			},
			want: map[string]int{"a": 1, "b": 2, "c": 3},
		},
		{
			name: "middle tie compresses rank space",
			entrants: []RankedEntrant{
				{ID: "a"},
				{ID: "b"},
				{ID: "c", TiedWithPrev: true},
				{ID: "d"},
			},
			want: map[string]int{"a": 1, "b": 2, "c": 2, "d": 3},
		},
		{
			name: "three way tie for first",
			entrants: []RankedEntrant{
				{ID: "a"},
				{ID: "b", TiedWithPrev: true},
				{ID: "c", TiedWithPrev: true},
				{ID: "d"},
			},
			want: map[string]int{"a": 1, "b": 1, "c": 1, "d": 2},
		},
		{
			name: "tie for last",
			entrants: []RankedEntrant{
				{ID: "a"},
				{ID: "b"},
				{ID: "c", TiedWithPrev: true},
			},
			want: map[string]int{"a": 1, "b": 2, "c": 2},
		},
		{
			name: "two separate tie groups",
			entrants: []RankedEntrant{
				{ID: "a"},
				{ID: "b", TiedWithPrev: true},
				{ID: "c"},
				{ID: "d", TiedWithPrev: true},
				{ID: "e"},
			},
			want: map[string]int{"a": 1, "b": 1, "c": 2, "d": 2, "e": 3},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolvePlacements(tc.entrants))
			// Pure function: running it again must give the same answer.
			assert.Equal(t, tc.want, ResolvePlacements(tc.entrants))
		})
	}
}

func TestMaxPlacement(t *testing.T) {
	assert.Equal(t, 0, MaxPlacement(nil))
	assert.Equal(t, 3, MaxPlacement(map[string]int{"a": 1, "b": 3, "c": 2}))
}
