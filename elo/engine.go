package elo

import "math"

// Rating scale constants. The deviation follows the classical Elo system:
// a 400 point gap gives the stronger side 10-to-1 expected odds.
const deviation = 400

// Default tuning, overridable through configuration.
const (
	DefaultInitialRating = 1200
	DefaultKBase         = 32
	DefaultDecayGames    = 30
)

// EngineEntrant is one competitor (or one virtual team entrant) entering
// a rating computation. Rating is a float so team averages carry through
// without premature rounding; individual entrants pass whole numbers.
type EngineEntrant struct {
	ID          string
	Rating      float64
	GamesPlayed int
	Placement   int
}

// Delta is the computed rating movement for one entrant.
type Delta struct {
	ID     string
	Change int
}

// Engine computes N-way Elo rating deltas. Zero value is not usable,
// construct with NewEngine.
type Engine struct {
	kBase      float64
	decayGames float64
}

// NewEngine builds an engine with the given K base and K decay horizon.
// Non-positive arguments fall back to the defaults.
func NewEngine(kBase float64, decayGames int) *Engine {
	if kBase <= 0 {
		kBase = DefaultKBase
	}
	if decayGames <= 0 {
		decayGames = DefaultDecayGames
	}
	return &Engine{kBase: kBase, decayGames: float64(decayGames)}
}

// ComputeDeltas generalizes two-player Elo to an N-way field: every
// entrant is compared pairwise against every other, expected scores come
// from the classical logistic curve, and actual scores are 1/0.5/0 by
// placement. The per-pair results are averaged over the n-1 opponents so
// that the K factor bounds the swing of a single match regardless of
// field size; with exactly two entrants this reduces to the classical
// pairwise update.
//
// Deltas are rounded half away from zero (math.Round). The rounding mode
// is load-bearing: reversal reconstructs prior ratings by subtracting
// stored deltas, so recomputation must reproduce them bit for bit.
//
// Pure function, no I/O. O(n^2) in the entrant count, which is fine for
// human-scale groups.
func (e *Engine) ComputeDeltas(entrants []EngineEntrant) []Delta {
	deltas := make([]Delta, 0, len(entrants))
	if len(entrants) < 2 {
		for _, en := range entrants {
			deltas = append(deltas, Delta{ID: en.ID})
		}
		return deltas
	}

	opponents := float64(len(entrants) - 1)
	for _, a := range entrants {
		var expected, actual float64
		for _, b := range entrants {
			if a.ID == b.ID {
				continue
			}
			expected += expectedScore(a.Rating, b.Rating)
			actual += actualScore(a.Placement, b.Placement)
		}
		k := e.kFactor(a.GamesPlayed)
		change := math.Round(k * (actual - expected) / opponents)
		deltas = append(deltas, Delta{ID: a.ID, Change: int(change)})
	}
	return deltas
}

// kFactor decays with experience so established ratings move less:
// kBase at zero games, half of it once decayGames games are played.
func (e *Engine) kFactor(gamesPlayed int) float64 {
	return e.kBase / (1 + float64(gamesPlayed)/e.decayGames)
}

func expectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/deviation))
}

func actualScore(pa, pb int) float64 {
	switch {
	case pa < pb:
		return 1
	case pa > pb:
		return 0
	default:
		return 0.5
	}
}
