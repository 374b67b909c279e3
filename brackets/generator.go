package brackets

import (
	"errors"
	"math"
	"math/rand"

	"github.com/cardhouse/tournament-engine/models"
)

// ErrNoFurtherRounds signals that the format has nothing left to pair: the
// bracket is down to a single winner, or a swiss tournament has played all of
// its scheduled rounds. The caller treats it as the completion condition.
var ErrNoFurtherRounds = errors.New("no further rounds to generate")

type GenerateRoundParams struct {
	Tournament *models.Tournament

	// Round is the 1-based number of the round being generated. Rounds after
	// the first derive entirely from recorded results of Round-1.
	Round int

	// Rand is the only randomness source of the engine; round 1 pairing order
	// comes from it and nothing else, so pairings are reproducible under test.
	Rand *rand.Rand
}

type Generator interface {
	GenerateRound(params GenerateRoundParams) ([]models.Match, error)

	GetName() string
}

// ForFormat resolves the generator for a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	}
	return nil, errors.New("unsupported tournament format: " + string(format))
}

// shuffledIDs copies the roster and applies a Fisher–Yates pass, iterating
// from the last index down to 1 and swapping with a uniformly chosen
// earlier-or-equal index.
func shuffledIDs(players []models.Participant, rng *rand.Rand) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	for i := len(ids) - 1; i >= 1; i-- {
		j := rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}

// pairConsecutive partitions ordered ids into matches of two:
// (ids[0],ids[1]), (ids[2],ids[3]), ... A trailing odd participant receives
// the bye built by byeMatch.
func pairConsecutive(ids []string, byeMatch func(string) models.Match) []models.Match {
	matches := make([]models.Match, 0, (len(ids)+1)/2)
	for i := 0; i+1 < len(ids); i += 2 {
		matches = append(matches, models.NewPendingMatch(ids[i], ids[i+1]))
	}
	if len(ids)%2 == 1 {
		matches = append(matches, byeMatch(ids[len(ids)-1]))
	}
	return matches
}

// SwissRoundCount returns the number of rounds a swiss tournament of n
// players schedules, ceil(log2(n)).
func SwissRoundCount(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
