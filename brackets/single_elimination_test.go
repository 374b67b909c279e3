package brackets

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/cardhouse/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePlayers(n int) []models.Participant {
	players := make([]models.Participant, n)
	for i := range players {
		players[i] = models.Participant{
			ID:          fmt.Sprintf("p%02d", i+1),
			DisplayName: fmt.Sprintf("Player %d", i+1),
		}
	}
	return players
}

func activeTournament(format models.TournamentFormat, n int) *models.Tournament {
	return &models.Tournament{
		ID:      "t1",
		Format:  format,
		Status:  models.StatusActive,
		Players: makePlayers(n),
		Rounds:  make(map[string][]models.Match),
	}
}

// resolveAllByFirstSlot gives every pending match of the round to its first
// participant.
func resolveAllByFirstSlot(t *models.Tournament, round int) {
	matches := t.Round(round)
	for i := range matches {
		m := &matches[i]
		if m.Winner != nil {
			continue
		}
		winner := m.Participant1
		m.Result = map[string]int{m.Participant1: 2, *m.Participant2: 1}
		m.Winner = &winner
		m.State = models.MatchResolved
	}
}

func coveredParticipants(t *testing.T, matches []models.Match) map[string]int {
	t.Helper()
	seen := make(map[string]int)
	for _, m := range matches {
		seen[m.Participant1]++
		if m.Participant2 != nil {
			seen[*m.Participant2]++
		}
	}
	return seen
}

func TestSingleEliminationRoundOneCoversEveryParticipantOnce(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	for _, n := range []int{2, 3, 4, 5, 8, 9, 16, 17} {
		tournament := activeTournament(models.FormatSingleElimination, n)
		matches, err := gen.GenerateRound(GenerateRoundParams{
			Tournament: tournament,
			Round:      1,
			Rand:       rand.New(rand.NewSource(42)),
		})
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, matches, (n+1)/2, "n=%d", n)

		seen := coveredParticipants(t, matches)
		assert.Len(t, seen, n, "n=%d", n)
		for id, count := range seen {
			assert.Equal(t, 1, count, "participant %s paired more than once (n=%d)", id, n)
		}
	}
}

func TestSingleEliminationOddRosterGetsExactlyOneBye(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	tournament := activeTournament(models.FormatSingleElimination, 5)

	matches, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: tournament,
		Round:      1,
		Rand:       rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	byes := 0
	for _, m := range matches {
		if m.State == models.MatchBye {
			byes++
			assert.Nil(t, m.Participant2)
			require.NotNil(t, m.Winner)
			assert.Equal(t, m.Participant1, *m.Winner)
			assert.Nil(t, m.Result, "single elimination byes carry no score")
		}
	}
	assert.Equal(t, 1, byes)
}

func TestSingleEliminationShuffleIsDeterministicPerSeed(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	first, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: activeTournament(models.FormatSingleElimination, 9),
		Round:      1,
		Rand:       rand.New(rand.NewSource(1234)),
	})
	require.NoError(t, err)

	second, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: activeTournament(models.FormatSingleElimination, 9),
		Round:      1,
		Rand:       rand.New(rand.NewSource(1234)),
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: activeTournament(models.FormatSingleElimination, 9),
		Round:      1,
		Rand:       rand.New(rand.NewSource(4321)),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "different seeds should produce different pairing orders for 9 players")
}

func TestSingleEliminationPairsWinnersInMatchOrder(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	tournament := activeTournament(models.FormatSingleElimination, 8)

	matches, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: tournament,
		Round:      1,
		Rand:       rand.New(rand.NewSource(99)),
	})
	require.NoError(t, err)
	tournament.SetRound(1, matches)
	tournament.CurrentRound = 1
	resolveAllByFirstSlot(tournament, 1)

	winners := tournament.RoundWinners(1)
	require.Len(t, winners, 4)

	next, err := gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 2})
	require.NoError(t, err)
	require.Len(t, next, 2)

	// Winners meet in the order their matches were listed, no re-shuffle.
	assert.Equal(t, winners[0], next[0].Participant1)
	assert.Equal(t, winners[1], *next[0].Participant2)
	assert.Equal(t, winners[2], next[1].Participant1)
	assert.Equal(t, winners[3], *next[1].Participant2)
}

func TestSingleEliminationRejectsUnresolvedPreviousRound(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	tournament := activeTournament(models.FormatSingleElimination, 4)

	matches, err := gen.GenerateRound(GenerateRoundParams{
		Tournament: tournament,
		Round:      1,
		Rand:       rand.New(rand.NewSource(5)),
	})
	require.NoError(t, err)
	tournament.SetRound(1, matches)
	tournament.CurrentRound = 1

	_, err = gen.GenerateRound(GenerateRoundParams{Tournament: tournament, Round: 2})
	assert.Error(t, err)
}

func TestSingleEliminationTerminatesInLogRounds(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	for n := 2; n <= 33; n++ {
		tournament := activeTournament(models.FormatSingleElimination, n)

		matches, err := gen.GenerateRound(GenerateRoundParams{
			Tournament: tournament,
			Round:      1,
			Rand:       rand.New(rand.NewSource(int64(n))),
		})
		require.NoError(t, err)
		tournament.SetRound(1, matches)
		tournament.CurrentRound = 1

		rounds := 1
		for {
			resolveAllByFirstSlot(tournament, tournament.CurrentRound)
			next, err := gen.GenerateRound(GenerateRoundParams{
				Tournament: tournament,
				Round:      tournament.CurrentRound + 1,
			})
			if err == ErrNoFurtherRounds {
				break
			}
			require.NoError(t, err)
			tournament.SetRound(tournament.CurrentRound+1, next)
			tournament.CurrentRound++
			rounds++
		}

		expected := int(math.Ceil(math.Log2(float64(n))))
		assert.Equal(t, expected, rounds, "n=%d", n)
		assert.Len(t, tournament.RoundWinners(tournament.CurrentRound), 1, "n=%d should end with one champion", n)
	}
}
