package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cardhouse/tournament-engine/models"
	"github.com/cardhouse/tournament-engine/repositories"
)

// Principal is the resolved identity of the caller, extracted from the
// platform's auth layer. Whether the principal organizes a given tournament
// is resolved per tournament against its organizer id.
type Principal struct {
	ID          string
	DisplayName string
	AvatarRef   *string
	IsAdmin     bool
}

func (p Principal) organizes(t *models.Tournament) bool {
	return t.OrganizerID == p.ID
}

const (
	casMaxAttempts       = 5
	defaultStoreDeadline = 3 * time.Second
)

// applyTournamentUpdate is the single mutation path for tournament state.
// It reads a fresh document, runs mutate against it, and writes the result
// back with a version-checked swap. A lost swap means another client wrote
// in between; the loop re-reads so mutate re-evaluates its preconditions
// against the state that actually won.
func applyTournamentUpdate(
	ctx context.Context,
	repo repositories.TournamentRepository,
	id string,
	mutate func(*models.Tournament) error,
) (*models.Tournament, error) {
	var lastErr error
	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		t, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		if err := mutate(t); err != nil {
			return nil, err
		}
		err = repo.UpdateDoc(ctx, t)
		if err == nil {
			return t, nil
		}
		if errors.Is(err, repositories.ErrVersionConflict) {
			lastErr = err
			continue
		}
		return nil, mapRepositoryError(err)
	}
	return nil, fmt.Errorf("%w: gave up after %d conflicting writes: %v", ErrTransientStore, casMaxAttempts, lastErr)
}

func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	default:
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
}

// storeContext bounds a store round trip so a stalled backend surfaces as a
// transient failure instead of a hung request.
func storeContext(ctx context.Context, deadline time.Duration) (context.Context, context.CancelFunc) {
	if deadline <= 0 {
		deadline = defaultStoreDeadline
	}
	return context.WithTimeout(ctx, deadline)
}

func tournamentRoomID(tournamentID string) string {
	return "tournament_" + tournamentID
}
