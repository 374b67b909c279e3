package services

import "context"

// SessionLauncher creates a linked real-time game session for a freshly
// paired match, addressed by tournament, round and match index. The returned
// identifier is opaque to the engine; an empty id means no session was
// attached.
type SessionLauncher interface {
	CreateSession(ctx context.Context, tournamentID string, round, matchIndex int) (string, error)
}

type noopSessionLauncher struct{}

// NewNoopSessionLauncher returns a launcher that never attaches sessions,
// for deployments without a game UI backend.
func NewNoopSessionLauncher() SessionLauncher {
	return noopSessionLauncher{}
}

func (noopSessionLauncher) CreateSession(context.Context, string, int, int) (string, error) {
	return "", nil
}
