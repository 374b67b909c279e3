package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/cardhouse/tournament-engine/models"
	"github.com/cardhouse/tournament-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPrincipal(id string) Principal {
	return Principal{ID: id, DisplayName: "User " + id}
}

func newTestServices(t *testing.T, seed int64) (TournamentService, MatchService, repositories.TournamentRepository) {
	t.Helper()
	repo := repositories.NewMemoryTournamentRepository()
	rng := rand.New(rand.NewSource(seed))
	ts := NewTournamentService(repo, nil, nil, nil, rng, testLogger(), time.Second)
	ms := NewMatchService(repo, nil, nil, testLogger(), time.Second)
	return ts, ms, repo
}

// createWithRoster creates a tournament organized by "org" and joins p02..pNN.
func createWithRoster(t *testing.T, ts TournamentService, format models.TournamentFormat, size int) *models.Tournament {
	t.Helper()
	ctx := context.Background()

	tournament, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name:   "Friday Night Standard",
		Format: format,
	})
	require.NoError(t, err)

	for i := 2; i <= size; i++ {
		tournament, err = ts.JoinTournament(ctx, tournament.ID, testPrincipal(playerID(i)))
		require.NoError(t, err)
	}
	require.Len(t, tournament.Players, size)
	return tournament
}

func playerID(i int) string {
	if i < 10 {
		return "p0" + string(rune('0'+i))
	}
	return "p" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}

func TestCreateTournamentValidation(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()

	_, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{Format: models.FormatSwiss})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{Name: "Cube Draft", Format: "ladder"})
	assert.ErrorIs(t, err, ErrValidation)

	limit := 0
	_, err = ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name: "Cube Draft", Format: models.FormatSwiss, PlayerLimit: &limit,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateTournamentRegistersOrganizer(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)

	tournament, err := ts.CreateTournament(context.Background(), testPrincipal("p01"), CreateTournamentInput{
		Name:   "Commander League",
		Format: models.FormatSingleElimination,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRegistering, tournament.Status)
	assert.Equal(t, 0, tournament.CurrentRound)
	require.Len(t, tournament.Players, 1)
	assert.Equal(t, "p01", tournament.Players[0].ID)
	assert.Equal(t, "p01", tournament.OrganizerID)
}

func TestJoinKeepsRosterUnique(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSingleElimination, 3)

	_, err := ts.JoinTournament(ctx, tournament.ID, testPrincipal("p02"))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.ErrorIs(t, err, ErrStateConflict)

	refreshed, err := ts.GetTournamentByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, refreshed.Players, 3)
}

func TestJoinEnforcesPlayerLimit(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()

	limit := 2
	tournament, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name: "Two-Man Showdown", Format: models.FormatSingleElimination, PlayerLimit: &limit,
	})
	require.NoError(t, err)

	_, err = ts.JoinTournament(ctx, tournament.ID, testPrincipal("p02"))
	require.NoError(t, err)

	_, err = ts.JoinTournament(ctx, tournament.ID, testPrincipal("p03"))
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestJoinAfterStartIsAStateConflict(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSingleElimination, 4)

	_, err := ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	require.NoError(t, err)

	_, err = ts.JoinTournament(ctx, tournament.ID, testPrincipal("p05"))
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	assert.ErrorIs(t, err, ErrStateConflict)

	refreshed, err := ts.GetTournamentByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, refreshed.Players, 4, "roster must be unchanged by the rejected join")
}

func TestLeavePreservesRosterOrder(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSwiss, 4)

	updated, err := ts.LeaveTournament(ctx, tournament.ID, "p02", testPrincipal("p02"))
	require.NoError(t, err)

	ids := make([]string, 0, len(updated.Players))
	for _, p := range updated.Players {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p01", "p03", "p04"}, ids)
}

func TestLeaveAuthorization(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSwiss, 3)

	// A third party cannot withdraw someone else's registration.
	_, err := ts.LeaveTournament(ctx, tournament.ID, "p02", testPrincipal("p03"))
	assert.ErrorIs(t, err, ErrLeaveForbidden)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The organizer can.
	_, err = ts.LeaveTournament(ctx, tournament.ID, "p02", testPrincipal("p01"))
	require.NoError(t, err)

	_, err = ts.LeaveTournament(ctx, tournament.ID, "p02", testPrincipal("p01"))
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestStartRequiresOrganizer(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSingleElimination, 4)

	_, err := ts.StartTournament(ctx, tournament.ID, testPrincipal("p02"))
	assert.ErrorIs(t, err, ErrNotOrganizer)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A platform administrator may start on the organizer's behalf.
	admin := Principal{ID: "staff-1", DisplayName: "Staff", IsAdmin: true}
	started, err := ts.StartTournament(ctx, tournament.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, started.Status)
}

func TestStartTwiceIsRejected(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSingleElimination, 4)

	_, err := ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	require.NoError(t, err)

	_, err = ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	assert.ErrorIs(t, err, ErrTournamentAlreadyStarted)
}

func TestStartWithEmptyRoster(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()

	tournament, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name: "Ghost Town Open", Format: models.FormatSingleElimination,
	})
	require.NoError(t, err)

	_, err = ts.LeaveTournament(ctx, tournament.ID, "p01", testPrincipal("p01"))
	require.NoError(t, err)

	_, err = ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	assert.ErrorIs(t, err, ErrRosterEmpty)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStartWithSinglePlayerCompletesImmediately(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()

	tournament, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name: "Lonely Bracket", Format: models.FormatSingleElimination,
	})
	require.NoError(t, err)

	started, err := ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, started.Status)
	require.NotNil(t, started.ChampionID)
	assert.Equal(t, "p01", *started.ChampionID)
	assert.Equal(t, 0, started.CurrentRound)
	assert.Empty(t, started.Rounds)
}

func TestStartBuildsRoundOneWithBye(t *testing.T) {
	ts, _, _ := newTestServices(t, 42)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSingleElimination, 5)

	started, err := ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, started.Status)
	assert.Equal(t, 1, started.CurrentRound)

	matches := started.ActiveRound()
	require.Len(t, matches, 3)
	byes := 0
	for _, m := range matches {
		if m.State == models.MatchBye {
			byes++
		}
	}
	assert.Equal(t, 1, byes)
}

func TestStartSwissFixesRoundSchedule(t *testing.T) {
	ts, _, _ := newTestServices(t, 42)
	ctx := context.Background()
	tournament := createWithRoster(t, ts, models.FormatSwiss, 8)

	started, err := ts.StartTournament(ctx, tournament.ID, testPrincipal("p01"))
	require.NoError(t, err)
	assert.Equal(t, 3, started.TotalRounds)
}

// flakyRepository fails a configurable number of document swaps with a
// version conflict before letting them through, simulating concurrent
// writers.
type flakyRepository struct {
	repositories.TournamentRepository
	conflicts int
}

func (r *flakyRepository) UpdateDoc(ctx context.Context, tournament *models.Tournament) error {
	if r.conflicts > 0 {
		r.conflicts--
		return repositories.ErrVersionConflict
	}
	return r.TournamentRepository.UpdateDoc(ctx, tournament)
}

func TestMutationsRetryOnVersionConflict(t *testing.T) {
	base := repositories.NewMemoryTournamentRepository()
	flaky := &flakyRepository{TournamentRepository: base, conflicts: 2}
	ts := NewTournamentService(flaky, nil, nil, nil, rand.New(rand.NewSource(1)), testLogger(), time.Second)
	ctx := context.Background()

	tournament, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name: "Contested Writes Cup", Format: models.FormatSwiss,
	})
	require.NoError(t, err)

	updated, err := ts.JoinTournament(ctx, tournament.ID, testPrincipal("p02"))
	require.NoError(t, err, "two lost swaps should be retried away")
	assert.Len(t, updated.Players, 2)
}

func TestMutationsGiveUpAfterRepeatedConflicts(t *testing.T) {
	base := repositories.NewMemoryTournamentRepository()
	flaky := &flakyRepository{TournamentRepository: base, conflicts: 100}
	ts := NewTournamentService(flaky, nil, nil, nil, rand.New(rand.NewSource(1)), testLogger(), time.Second)
	ctx := context.Background()

	tournament, err := ts.CreateTournament(ctx, testPrincipal("p01"), CreateTournamentInput{
		Name: "Hopeless Writes Cup", Format: models.FormatSwiss,
	})
	require.NoError(t, err)

	_, err = ts.JoinTournament(ctx, tournament.ID, testPrincipal("p02"))
	assert.ErrorIs(t, err, ErrTransientStore)
}

func TestGetTournamentNotFound(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)

	_, err := ts.GetTournamentByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTournamentsFiltersByStatus(t *testing.T) {
	ts, _, _ := newTestServices(t, 1)
	ctx := context.Background()

	running := createWithRoster(t, ts, models.FormatSingleElimination, 2)
	_, err := ts.StartTournament(ctx, running.ID, testPrincipal("p01"))
	require.NoError(t, err)

	_, err = ts.CreateTournament(ctx, testPrincipal("p09"), CreateTournamentInput{
		Name: "Still Registering", Format: models.FormatSwiss,
	})
	require.NoError(t, err)

	status := models.StatusRegistering
	listed, err := ts.ListTournaments(ctx, repositories.ListTournamentsFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Still Registering", listed[0].Name)
}

func TestRepositoryErrorsSurfaceAsTransient(t *testing.T) {
	err := mapRepositoryError(errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrTransientStore)
}
