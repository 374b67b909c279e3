package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// so callers can branch on the kind with errors.Is without matching the
// specific failure.
var (
	ErrValidation     = errors.New("validation failed")
	ErrStateConflict  = errors.New("state conflict")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("requested resource not found")
	ErrTransientStore = errors.New("transient store failure") // safe to retry
)

// Specific failures, grouped by kind.
var (
	ErrTournamentNotFound  = fmt.Errorf("%w: tournament", ErrNotFound)
	ErrRoundNotFound       = fmt.Errorf("%w: round", ErrNotFound)
	ErrMatchNotFound       = fmt.Errorf("%w: match", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant registration", ErrNotFound)

	ErrTournamentNameRequired = fmt.Errorf("%w: tournament name is required", ErrValidation)
	ErrInvalidFormat          = fmt.Errorf("%w: unknown tournament format", ErrValidation)
	ErrInvalidPlayerLimit     = fmt.Errorf("%w: player limit must be a positive integer", ErrValidation)
	ErrRosterEmpty            = fmt.Errorf("%w: cannot start a tournament with an empty roster", ErrValidation)
	ErrDrawnResult            = fmt.Errorf("%w: a winner must be declared, drawn scores are not accepted", ErrValidation)
	ErrNegativeScore          = fmt.Errorf("%w: scores must not be negative", ErrValidation)

	ErrRegistrationClosed       = fmt.Errorf("%w: tournament registration is not open", ErrStateConflict)
	ErrTournamentFull           = fmt.Errorf("%w: tournament registration is full", ErrStateConflict)
	ErrAlreadyRegistered        = fmt.Errorf("%w: participant is already registered", ErrStateConflict)
	ErrTournamentAlreadyStarted = fmt.Errorf("%w: tournament has already started", ErrStateConflict)
	ErrTournamentNotActive      = fmt.Errorf("%w: tournament is not active", ErrStateConflict)
	ErrRoundNotCurrent          = fmt.Errorf("%w: results are only accepted for the active round", ErrStateConflict)
	ErrMatchAlreadyReported     = fmt.Errorf("%w: match result has already been reported", ErrStateConflict)
	ErrByeNotReportable         = fmt.Errorf("%w: a bye advances automatically and takes no report", ErrStateConflict)

	ErrNotOrganizer        = fmt.Errorf("%w: only the tournament organizer can perform this action", ErrUnauthorized)
	ErrNotMatchParticipant = fmt.Errorf("%w: only a participant of the match can report its result", ErrUnauthorized)
	ErrOrganizerReportOnly = fmt.Errorf("%w: swiss results are reported by the organizer or an administrator", ErrUnauthorized)
	ErrLeaveForbidden      = fmt.Errorf("%w: only the participant themselves or the organizer can withdraw a registration", ErrUnauthorized)
)
