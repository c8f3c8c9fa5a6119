package elo

// RankedEntrant is one row of a reported finishing order, best first.
// TiedWithPrev joins the entrant to the tie group of the entry directly
// above it; ties can only be declared between adjacent entries.
type RankedEntrant struct {
	ID           string
	TiedWithPrev bool
}

// ResolvePlacements turns the reported order into integer placements
// (1 = best). All members of a tie group share the placement of the
// group's best-ranked member, and ties compress the rank space: a
// three-way tie for 1st is followed by placement 2, not 4.
//
// Pure function, deterministic for identical input. An empty slice
// yields an empty map; callers are expected to reject empty matches
// before getting here.
func ResolvePlacements(entrants []RankedEntrant) map[string]int {
	placements := make(map[string]int, len(entrants))

	next := 1    // next unused placement
	current := 0 // placement of the tie group being walked
	for i, e := range entrants {
		if i == 0 || !e.TiedWithPrev {
			current = next
		}
		next = current + 1
		placements[e.ID] = current
	}
	return placements
}

// MaxPlacement returns the worst (highest) placement present.
// Zero for an empty map.
func MaxPlacement(placements map[string]int) int {
	max := 0
	for _, p := range placements {
		if p > max {
			max = p
		}
	}
	return max
}
