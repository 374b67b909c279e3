package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/cardhouse/tournament-engine/brackets"
	"github.com/cardhouse/tournament-engine/models"
	"github.com/cardhouse/tournament-engine/repositories"
	"github.com/cardhouse/tournament-engine/storage"
	"github.com/google/uuid"
)

type CreateTournamentInput struct {
	Name        string                  `json:"name"`
	Format      models.TournamentFormat `json:"format"`
	PlayerLimit *int                    `json:"player_limit,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizer Principal, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	JoinTournament(ctx context.Context, id string, caller Principal) (*models.Tournament, error)
	LeaveTournament(ctx context.Context, id string, participantID string, caller Principal) (*models.Tournament, error)
	StartTournament(ctx context.Context, id string, caller Principal) (*models.Tournament, error)
	UpdateBanner(ctx context.Context, id string, caller Principal, contentType string, banner io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	repo     repositories.TournamentRepository
	uploader storage.FileUploader
	hub      *brackets.Hub
	launcher SessionLauncher
	logger   *slog.Logger

	// rng feeds the round 1 shuffle and is the engine's only randomness
	// source. Guarded because rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand

	storeDeadline time.Duration
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	launcher SessionLauncher,
	rng *rand.Rand,
	logger *slog.Logger,
	storeDeadline time.Duration,
) TournamentService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if launcher == nil {
		launcher = NewNoopSessionLauncher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		repo:          repo,
		uploader:      uploader,
		hub:           hub,
		launcher:      launcher,
		logger:        logger,
		rng:           rng,
		storeDeadline: storeDeadline,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizer Principal, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !input.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, input.Format)
	}
	if input.PlayerLimit != nil && *input.PlayerLimit < 1 {
		return nil, ErrInvalidPlayerLimit
	}

	t := &models.Tournament{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Format:      input.Format,
		Status:      models.StatusRegistering,
		OrganizerID: organizer.ID,
		PlayerLimit: input.PlayerLimit,
		Players: []models.Participant{{
			ID:          organizer.ID,
			DisplayName: organizer.DisplayName,
			AvatarRef:   organizer.AvatarRef,
		}},
		Rounds: make(map[string][]models.Match),
	}

	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.decorate(t), nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id string) (*models.Tournament, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.decorate(t), nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()
	tournaments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	for i := range tournaments {
		s.decorate(&tournaments[i])
	}
	return tournaments, nil
}

// JoinTournament appends the caller to the roster. Registration order is
// preserved; ids stay unique; the optional player limit is enforced.
func (s *tournamentService) JoinTournament(ctx context.Context, id string, caller Principal) (*models.Tournament, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()

	t, err := applyTournamentUpdate(ctx, s.repo, id, func(t *models.Tournament) error {
		if t.Status != models.StatusRegistering {
			return ErrRegistrationClosed
		}
		if t.HasPlayer(caller.ID) {
			return ErrAlreadyRegistered
		}
		if t.PlayerLimit != nil && len(t.Players) >= *t.PlayerLimit {
			return ErrTournamentFull
		}
		t.Players = append(t.Players, models.Participant{
			ID:          caller.ID,
			DisplayName: caller.DisplayName,
			AvatarRef:   caller.AvatarRef,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(t, brackets.EventTournamentUpdated)
	return s.decorate(t), nil
}

// LeaveTournament removes a registration while registration is open. The
// participant themselves, the organizer, or an administrator may withdraw it.
// Removal is stable: the order of the remaining players is unchanged.
func (s *tournamentService) LeaveTournament(ctx context.Context, id string, participantID string, caller Principal) (*models.Tournament, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()

	t, err := applyTournamentUpdate(ctx, s.repo, id, func(t *models.Tournament) error {
		if t.Status != models.StatusRegistering {
			return ErrRegistrationClosed
		}
		if caller.ID != participantID && !caller.IsAdmin && !caller.organizes(t) {
			return ErrLeaveForbidden
		}
		for i := range t.Players {
			if t.Players[i].ID == participantID {
				t.Players = append(t.Players[:i], t.Players[i+1:]...)
				return nil
			}
		}
		return ErrParticipantNotFound
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(t, brackets.EventTournamentUpdated)
	return s.decorate(t), nil
}

// StartTournament snapshots the roster, builds round 1 and flips the
// tournament to active. A single registered player completes the tournament
// immediately with that player as champion; no round is created for it.
func (s *tournamentService) StartTournament(ctx context.Context, id string, caller Principal) (*models.Tournament, error) {
	ctx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()

	t, err := applyTournamentUpdate(ctx, s.repo, id, func(t *models.Tournament) error {
		if !caller.IsAdmin && !caller.organizes(t) {
			return ErrNotOrganizer
		}
		if t.Status != models.StatusRegistering {
			return ErrTournamentAlreadyStarted
		}
		if len(t.Players) == 0 {
			return ErrRosterEmpty
		}
		if len(t.Players) == 1 {
			champion := t.Players[0].ID
			t.Status = models.StatusCompleted
			t.ChampionID = &champion
			return nil
		}

		generator, err := brackets.ForFormat(t.Format)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if t.Format == models.FormatSwiss {
			t.TotalRounds = brackets.SwissRoundCount(len(t.Players))
		}

		s.rngMu.Lock()
		matches, err := generator.GenerateRound(brackets.GenerateRoundParams{
			Tournament: t,
			Round:      1,
			Rand:       s.rng,
		})
		s.rngMu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to generate round 1: %w", err)
		}

		t.SetRound(1, matches)
		t.CurrentRound = 1
		t.Status = models.StatusActive
		attachSessions(ctx, s.launcher, s.logger, t, 1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if t.Status == models.StatusCompleted {
		s.broadcast(t, brackets.EventTournamentCompleted)
	} else {
		s.broadcast(t, brackets.EventTournamentUpdated)
	}
	return s.decorate(t), nil
}

func (s *tournamentService) UpdateBanner(ctx context.Context, id string, caller Principal, contentType string, banner io.Reader) (*models.Tournament, error) {
	t, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !caller.organizes(t) {
		return nil, ErrNotOrganizer
	}

	key := fmt.Sprintf("tournaments/%s/banner", t.ID)
	if _, err := s.uploader.Upload(ctx, key, contentType, banner); err != nil {
		return nil, fmt.Errorf("failed to upload tournament banner: %w", err)
	}

	storeCtx, cancel := storeContext(ctx, s.storeDeadline)
	defer cancel()
	if err := s.repo.UpdateBannerKey(storeCtx, t.ID, &key); err != nil {
		return nil, mapRepositoryError(err)
	}
	t.BannerKey = &key
	return s.decorate(t), nil
}

// decorate fills display-only derived fields before the tournament leaves
// the service layer.
func (s *tournamentService) decorate(t *models.Tournament) *models.Tournament {
	if t.BannerKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*t.BannerKey)
		t.BannerURL = &url
	}
	return t
}

func (s *tournamentService) broadcast(t *models.Tournament, eventType string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(tournamentRoomID(t.ID), brackets.WebSocketMessage{
		Type:    eventType,
		Payload: t,
		RoomID:  tournamentRoomID(t.ID),
	})
}

// attachSessions asks the launcher for a linked game session for every
// pending match of the round. Launch failures are logged and skipped; a
// bracket must never fail to advance because the game UI backend is down.
func attachSessions(ctx context.Context, launcher SessionLauncher, logger *slog.Logger, t *models.Tournament, round int) {
	matches := t.Round(round)
	for i := range matches {
		m := &matches[i]
		if m.State != models.MatchPending || m.SessionID != nil {
			continue
		}
		sessionID, err := launcher.CreateSession(ctx, t.ID, round, i)
		if err != nil {
			logger.Warn("failed to create linked game session",
				slog.String("tournament_id", t.ID),
				slog.Int("round", round),
				slog.Int("match", i),
				slog.Any("error", err))
			continue
		}
		if sessionID != "" {
			m.SessionID = &sessionID
		}
	}
}
