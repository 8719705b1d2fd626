// Package turnorder computes which team is on the clock for a given round
// and pick. It is pure: everything is re-derivable from the frozen draft
// order plus (round, pick), so a restarted session recomputes the same team
// that actually picked.
package turnorder

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// TeamOnClock returns the team that owns pick p of round r under snake
// ordering. Both r and p are 1-indexed. Odd rounds run 1..T, even rounds
// reverse to T..1.
func TeamOnClock(order []uuid.UUID, round, pick int) (uuid.UUID, error) {
	n := len(order)
	if n == 0 {
		return uuid.Nil, fmt.Errorf("draft order is empty")
	}
	if round < 1 || pick < 1 || pick > n {
		return uuid.Nil, fmt.Errorf("position out of range: round %d pick %d with %d teams", round, pick, n)
	}
	if round%2 == 1 {
		return order[pick-1], nil
	}
	return order[n-pick], nil
}

// OverallPick returns the overall pick number for pick p of round r.
func OverallPick(teamCount, round, pick int) int {
	return (round-1)*teamCount + pick
}

// Position is the inverse of OverallPick.
func Position(teamCount, overall int) (round, pick int) {
	round = (overall-1)/teamCount + 1
	pick = (overall-1)%teamCount + 1
	return round, pick
}

// Shuffle returns a new permutation of teams derived from seed. The seed is
// stored with the draft so the order can be audited and replayed.
func Shuffle(teams []uuid.UUID, seed int64) []uuid.UUID {
	out := make([]uuid.UUID, len(teams))
	copy(out, teams)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
