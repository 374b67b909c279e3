package brackets

import (
	"errors"
	"fmt"

	"github.com/cardhouse/tournament-engine/models"
)

// SwissGenerator pairs round 1 at random exactly like single elimination and
// every later round by adjacency in the standings (wins descending,
// registration order on ties). Nobody is eliminated between rounds; the
// schedule ends after Tournament.TotalRounds rounds.
//
// Swiss byes are recorded as a 1-0 win rather than the null result single
// elimination uses, so the free win counts toward standings. The asymmetry
// is deliberate and mirrors how organizers score byes in this format.
type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

func (g *SwissGenerator) GenerateRound(params GenerateRoundParams) ([]models.Match, error) {
	t := params.Tournament

	if params.Round == 1 {
		if len(t.Players) < 2 {
			return nil, fmt.Errorf("not enough participants for a swiss tournament (minimum 2, found %d)", len(t.Players))
		}
		if params.Rand == nil {
			return nil, errors.New("round 1 pairing requires a random source")
		}
		return pairConsecutive(shuffledIDs(t.Players, params.Rand), models.NewScoredByeMatch), nil
	}

	if t.TotalRounds > 0 && params.Round > t.TotalRounds {
		return nil, ErrNoFurtherRounds
	}

	prev := params.Round - 1
	if !t.RoundResolved(prev) {
		return nil, fmt.Errorf("round %d is not fully resolved", prev)
	}

	standings := models.ComputeStandings(t)
	ids := make([]string, len(standings))
	for i, row := range standings {
		ids[i] = row.ParticipantID
	}
	// The bottom of the standings takes the bye on odd counts.
	return pairConsecutive(ids, models.NewScoredByeMatch), nil
}
