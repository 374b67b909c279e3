package brackets

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/cardhouse/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwissRoundCount(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4, 17: 5}
	for n, expected := range cases {
		assert.Equal(t, expected, SwissRoundCount(n), "n=%d", n)
	}
}

func TestSwissRoundOneByeIsScoredOneZero(t *testing.T) {
	gen := NewSwissGenerator()
	tournament := activeTournament(models.FormatSwiss, 7)
	tournament.TotalRounds = SwissRoundCount(7)

	matches, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: tournament,
		Round:      1,
		Rand:       rand.New(rand.NewSource(11)),
	})
	require.NoError(t, err)
	require.Len(t, matches, 4)

	byes := 0
	for _, m := range matches {
		if m.State == models.MatchBye {
			byes++
			require.NotNil(t, m.Winner)
			assert.Equal(t, m.Participant1, *m.Winner)
			// Swiss byes record the free win so it counts toward standings.
			assert.Equal(t, map[string]int{m.Participant1: 1}, m.Result)
		}
	}
	assert.Equal(t, 1, byes)

	seen := coveredParticipants(t, matches)
	assert.Len(t, seen, 7)
}

func TestSwissPairsAdjacentStandings(t *testing.T) {
	gen := NewSwissGenerator()
	tournament := activeTournament(models.FormatSwiss, 4)
	tournament.TotalRounds = 2

	// Fix round 1 manually: p01 beats p02, p03 beats p04.
	tournament.SetRound(1, []models.Match{
		models.NewPendingMatch("p01", "p02"),
		models.NewPendingMatch("p03", "p04"),
	})
	tournament.CurrentRound = 1
	resolveAllByFirstSlot(tournament, 1)

	next, err := gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 2})
	require.NoError(t, err)
	require.Len(t, next, 2)

	// Winners play winners, losers play losers; registration order breaks
	// the ties inside each score group.
	assert.Equal(t, "p01", next[0].Participant1)
	assert.Equal(t, "p03", *next[0].Participant2)
	assert.Equal(t, "p02", next[1].Participant1)
	assert.Equal(t, "p04", *next[1].Participant2)
}

func TestSwissBottomOfStandingsTakesTheBye(t *testing.T) {
	gen := NewSwissGenerator()
	tournament := activeTournament(models.FormatSwiss, 5)
	tournament.TotalRounds = SwissRoundCount(5)

	tournament.SetRound(1, []models.Match{
		models.NewPendingMatch("p01", "p02"),
		models.NewPendingMatch("p03", "p04"),
		models.NewScoredByeMatch("p05"),
	})
	tournament.CurrentRound = 1
	resolveAllByFirstSlot(tournament, 1)

	next, err := gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 2})
	require.NoError(t, err)
	require.Len(t, next, 3)

	last := next[2]
	require.Equal(t, models.MatchBye, last.State)
	// Standings after round 1: p01, p03, p05 on one win; p02, p04 on none.
	// p04 sits at the bottom and receives the scored bye.
	assert.Equal(t, "p04", last.Participant1)
	assert.Equal(t, map[string]int{"p04": 1}, last.Result)
}

func TestSwissStopsAfterScheduledRounds(t *testing.T) {
	gen := NewSwissGenerator()
	tournament := activeTournament(models.FormatSwiss, 4)
	tournament.TotalRounds = 2

	tournament.SetRound(1, []models.Match{
		models.NewPendingMatch("p01", "p02"),
		models.NewPendingMatch("p03", "p04"),
	})
	tournament.CurrentRound = 1
	resolveAllByFirstSlot(tournament, 1)

	round2, err := gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 2})
	require.NoError(t, err)
	tournament.SetRound(2, round2)
	tournament.CurrentRound = 2
	resolveAllByFirstSlot(tournament, 2)

	_, err = gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 3})
	assert.True(t, errors.Is(err, ErrNoFurtherRounds))
}

func TestSwissNobodyIsEliminated(t *testing.T) {
	gen := NewSwissGenerator()
	tournament := activeTournament(models.FormatSwiss, 6)
	tournament.TotalRounds = SwissRoundCount(6)

	matches, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: tournament,
		Round:      1,
		Rand:       rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	tournament.SetRound(1, matches)
	tournament.CurrentRound = 1
	resolveAllByFirstSlot(tournament, 1)

	next, err := gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 2})
	require.NoError(t, err)

	seen := coveredParticipants(t, next)
	assert.Len(t, seen, 6, "every player keeps playing in swiss")
}
