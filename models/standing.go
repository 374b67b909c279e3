package models

import "sort"

// Standing is one row of the accumulated score table. Byes with a recorded
// 1-0 result count as wins the same way played matches do; single elimination
// byes count through the preset winner.
type Standing struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Byes          int    `json:"byes"`
}

// ComputeStandings tallies every recorded round. Rows are ordered by wins
// descending; ties keep registration order, which makes the ordering stable
// across recomputations.
func ComputeStandings(t *Tournament) []Standing {
	index := make(map[string]int, len(t.Players))
	standings := make([]Standing, len(t.Players))
	for i, p := range t.Players {
		index[p.ID] = i
		standings[i] = Standing{ParticipantID: p.ID, DisplayName: p.DisplayName}
	}

	for n := 1; n <= t.CurrentRound; n++ {
		for _, m := range t.Round(n) {
			if m.Winner == nil {
				continue
			}
			wi, ok := index[*m.Winner]
			if !ok {
				continue
			}
			standings[wi].Wins++
			if m.State == MatchBye {
				standings[wi].Byes++
				continue
			}
			loserID := m.Participant1
			if loserID == *m.Winner && m.Participant2 != nil {
				loserID = *m.Participant2
			}
			if li, ok := index[loserID]; ok {
				standings[li].Losses++
			}
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Wins > standings[j].Wins
	})
	return standings
}
