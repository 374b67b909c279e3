package models

import (
	"strconv"
	"time"
)

// TournamentFormat enumerates the supported pairing formats.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatSwiss             TournamentFormat = "swiss"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatSwiss:
		return true
	}
	return false
}

// TournamentStatus values are monotonic: registering -> active -> completed.
type TournamentStatus string

const (
	StatusRegistering TournamentStatus = "registering"
	StatusActive      TournamentStatus = "active"
	StatusCompleted   TournamentStatus = "completed"
)

// Tournament is the single unit of consistency for the engine. The whole
// struct is persisted as one nested document; Version backs the
// compare-and-swap update in the repository and never leaves the store layer.
type Tournament struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Format      TournamentFormat `json:"format"`
	Status      TournamentStatus `json:"status"`
	OrganizerID string           `json:"organizer_id"`
	PlayerLimit *int             `json:"player_limit,omitempty"`

	// Players keeps registration order; ids are unique within the slice.
	Players []Participant `json:"players"`

	// CurrentRound is 0 while registering. Rounds is keyed by the stringified
	// 1-based round number and has exactly CurrentRound entries once the
	// tournament has started.
	CurrentRound int                `json:"current_round"`
	Rounds       map[string][]Match `json:"rounds"`

	// TotalRounds is fixed at start for swiss tournaments and zero otherwise.
	TotalRounds int `json:"total_rounds,omitempty"`

	ChampionID *string `json:"champion_id,omitempty"`

	BannerKey *string `json:"-"`
	BannerURL *string `json:"banner_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Version   int64     `json:"-"`
}

// RoundKey converts a 1-based round number to its document key.
func RoundKey(n int) string {
	return strconv.Itoa(n)
}

// Round returns the matches of round n, or nil if the round does not exist.
func (t *Tournament) Round(n int) []Match {
	if t.Rounds == nil {
		return nil
	}
	return t.Rounds[RoundKey(n)]
}

// SetRound stores matches under round n, allocating the map if needed.
func (t *Tournament) SetRound(n int, matches []Match) {
	if t.Rounds == nil {
		t.Rounds = make(map[string][]Match)
	}
	t.Rounds[RoundKey(n)] = matches
}

// ActiveRound returns the matches of the current round. Only this round may
// contain unresolved matches.
func (t *Tournament) ActiveRound() []Match {
	return t.Round(t.CurrentRound)
}

func (t *Tournament) HasPlayer(participantID string) bool {
	for _, p := range t.Players {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

// RoundResolved reports whether every match of round n has a winner.
func (t *Tournament) RoundResolved(n int) bool {
	matches := t.Round(n)
	if len(matches) == 0 {
		return false
	}
	for i := range matches {
		if matches[i].Winner == nil {
			return false
		}
	}
	return true
}

// RoundWinners collects the winner ids of round n in match order.
func (t *Tournament) RoundWinners(n int) []string {
	matches := t.Round(n)
	winners := make([]string, 0, len(matches))
	for i := range matches {
		if matches[i].Winner != nil {
			winners = append(winners, *matches[i].Winner)
		}
	}
	return winners
}
