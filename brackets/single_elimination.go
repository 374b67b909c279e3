package brackets

import (
	"errors"
	"fmt"

	"github.com/cardhouse/tournament-engine/models"
)

// SingleEliminationGenerator pairs round 1 from the shuffled roster and every
// later round from the previous round's winners, in match order and without
// re-shuffling. Byes advance with a preset winner and no result; a bracket
// bye is a walkover, not a recorded score.
type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateRound(params GenerateRoundParams) ([]models.Match, error) {
	t := params.Tournament

	if params.Round == 1 {
		if len(t.Players) < 2 {
			return nil, fmt.Errorf("not enough participants to generate a single elimination bracket (minimum 2, found %d)", len(t.Players))
		}
		if params.Rand == nil {
			return nil, errors.New("round 1 pairing requires a random source")
		}
		return pairConsecutive(shuffledIDs(t.Players, params.Rand), models.NewByeMatch), nil
	}

	prev := params.Round - 1
	if !t.RoundResolved(prev) {
		return nil, fmt.Errorf("round %d is not fully resolved", prev)
	}

	winners := t.RoundWinners(prev)
	if len(winners) <= 1 {
		return nil, ErrNoFurtherRounds
	}
	return pairConsecutive(winners, models.NewByeMatch), nil
}
