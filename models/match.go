package models

// MatchState tags the three legal shapes of a match so that "bye without
// result", "pending report" and "resolved" are explicit rather than encoded
// through which optional fields happen to be set.
type MatchState string

const (
	MatchBye      MatchState = "bye"
	MatchPending  MatchState = "pending"
	MatchResolved MatchState = "resolved"
)

// Match is the atomic unit of competition. Participant2 is nil exactly for
// byes. Result maps participant id to score and, together with Winner, is
// immutable once set; no corrections are modeled.
type Match struct {
	State        MatchState     `json:"state"`
	Participant1 string         `json:"participant1"`
	Participant2 *string        `json:"participant2,omitempty"`
	Result       map[string]int `json:"result,omitempty"`
	Winner       *string        `json:"winner,omitempty"`

	// SessionID is the opaque identifier of a linked real-time game session,
	// set when a session launcher is configured.
	SessionID *string `json:"session_id,omitempty"`
}

// NewPendingMatch pairs two participants awaiting a result.
func NewPendingMatch(participant1, participant2 string) Match {
	p2 := participant2
	return Match{
		State:        MatchPending,
		Participant1: participant1,
		Participant2: &p2,
	}
}

// NewByeMatch advances a lone participant without a score, as single
// elimination byes are recorded.
func NewByeMatch(participantID string) Match {
	winner := participantID
	return Match{
		State:        MatchBye,
		Participant1: participantID,
		Winner:       &winner,
	}
}

// NewScoredByeMatch advances a lone participant with a 1-0 record, as swiss
// byes are recorded so that the free win counts toward standings.
func NewScoredByeMatch(participantID string) Match {
	winner := participantID
	return Match{
		State:        MatchBye,
		Participant1: participantID,
		Result:       map[string]int{participantID: 1},
		Winner:       &winner,
	}
}

func (m *Match) HasParticipant(participantID string) bool {
	if m.Participant1 == participantID {
		return true
	}
	return m.Participant2 != nil && *m.Participant2 == participantID
}

// Resolved reports whether the match already has a winner, which includes
// byes.
func (m *Match) Resolved() bool {
	return m.Winner != nil
}
