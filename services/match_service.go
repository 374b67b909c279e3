package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardhouse/tournament-engine/brackets"
	"github.com/cardhouse/tournament-engine/models"
	"github.com/cardhouse/tournament-engine/repositories"
)

// ReportResultInput addresses a match by round number and its index within
// the round, and carries the scores for the two participant slots in pairing
// order.
type ReportResultInput struct {
	Round      int `json:"round"`
	MatchIndex int `json:"match_index"`
	Score1     int `json:"score1"`
	Score2     int `json:"score2"`
}

type MatchService interface {
	ReportResult(ctx context.Context, tournamentID string, reporter Principal, input ReportResultInput) (*models.Tournament, error)
	GetStandings(ctx context.Context, tournamentID string) ([]models.Standing, error)
}

type matchService struct {
	repo     repositories.TournamentRepository
	hub      *brackets.Hub
	launcher SessionLauncher
	logger   *slog.Logger

	storeDeadline time.Duration
}

func NewMatchService(
	repo repositories.TournamentRepository,
	hub *brackets.Hub,
	launcher SessionLauncher,
	logger *slog.Logger,
	storeDeadline time.Duration,
) MatchService {
	if launcher == nil {
		launcher = NewNoopSessionLauncher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		repo:          repo,
		hub:           hub,
		launcher:      launcher,
		logger:        logger,
		storeDeadline: storeDeadline,
	}
}

// ReportResult records a score for a pending match of the active round and
// runs the round-completion check. The result write, the completion check
// and any round advancement land in one version-checked document swap, so
// two reporters racing on the last open match cannot both generate the next
// round.
func (s *matchService) ReportResult(ctx context.Context, tournamentID string, reporter Principal, input ReportResultInput) (*models.Tournament, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()

	var completed bool
	t, err := applyTournamentUpdate(ctx, s.repo, tournamentID, func(t *models.Tournament) error {
		completed = false
		if t.Status != models.StatusActive {
			return ErrTournamentNotActive
		}
		if input.Round < 1 || input.Round > t.CurrentRound {
			return ErrRoundNotFound
		}
		if input.Round != t.CurrentRound {
			return ErrRoundNotCurrent
		}

		matches := t.ActiveRound()
		if input.MatchIndex < 0 || input.MatchIndex >= len(matches) {
			return ErrMatchNotFound
		}
		m := &matches[input.MatchIndex]

		if m.State == models.MatchBye {
			return ErrByeNotReportable
		}
		if m.Winner != nil {
			return ErrMatchAlreadyReported
		}
		if err := reportPolicyFor(t.Format).authorizeReport(t, m, reporter); err != nil {
			return err
		}
		if input.Score1 < 0 || input.Score2 < 0 {
			return ErrNegativeScore
		}
		if input.Score1 == input.Score2 {
			return ErrDrawnResult
		}

		winnerID := m.Participant1
		if input.Score2 > input.Score1 {
			winnerID = *m.Participant2
		}
		m.Result = map[string]int{
			m.Participant1:  input.Score1,
			*m.Participant2: input.Score2,
		}
		m.Winner = &winnerID
		m.State = models.MatchResolved

		advanced, err := s.advanceIfComplete(ctx, t)
		if err != nil {
			return err
		}
		completed = advanced && t.Status == models.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.broadcast(t, brackets.EventTournamentCompleted)
	} else {
		s.broadcast(t, brackets.EventMatchResult)
	}
	return t, nil
}

// advanceIfComplete is the round-completion trigger. It is idempotent: when
// the active round still has open matches, or its successor already exists,
// it does nothing and reports false.
func (s *matchService) advanceIfComplete(ctx context.Context, t *models.Tournament) (bool, error) {
	if t.Status != models.StatusActive {
		return false, nil
	}
	if !t.RoundResolved(t.CurrentRound) {
		return false, nil
	}
	next := t.CurrentRound + 1
	if t.Round(next) != nil {
		return false, nil
	}

	generator, err := brackets.ForFormat(t.Format)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	matches, err := generator.GenerateRound(brackets.GenerateRoundParams{
		Tournament: t,
		Round:      next,
	})
	if errors.Is(err, brackets.ErrNoFurtherRounds) {
		s.complete(t)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to generate round %d: %w", next, err)
	}

	t.SetRound(next, matches)
	t.CurrentRound = next
	attachSessions(ctx, s.launcher, s.logger, t, next)
	return true, nil
}

// complete marks the tournament finished and records the champion: the sole
// remaining winner for single elimination, the standings leader for swiss.
func (s *matchService) complete(t *models.Tournament) {
	t.Status = models.StatusCompleted

	switch t.Format {
	case models.FormatSwiss:
		standings := models.ComputeStandings(t)
		if len(standings) > 0 {
			champion := standings[0].ParticipantID
			t.ChampionID = &champion
		}
	default:
		winners := t.RoundWinners(t.CurrentRound)
		if len(winners) > 0 {
			champion := winners[0]
			t.ChampionID = &champion
		}
	}
}

func (s *matchService) GetStandings(ctx context.Context, tournamentID string) ([]models.Standing, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()

	t, err := s.repo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return models.ComputeStandings(t), nil
}

func (s *matchService) broadcast(t *models.Tournament, eventType string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(tournamentRoomID(t.ID), brackets.WebSocketMessage{
		Type:    eventType,
		Payload: t,
		RoomID:  tournamentRoomID(t.ID),
	})
}
