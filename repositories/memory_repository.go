package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cardhouse/tournament-engine/models"
)

// memoryTournamentRepository keeps tournaments as serialized documents behind
// a mutex, with the same version-checked swap semantics as the Postgres
// implementation. Used in tests and embeddable setups that run without a
// database.
type memoryTournamentRepository struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
}

type memoryDoc struct {
	doc       []byte
	bannerKey *string
	version   int64
	createdAt time.Time
}

func NewMemoryTournamentRepository() TournamentRepository {
	return &memoryTournamentRepository{docs: make(map[string]memoryDoc)}
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[t.ID]; exists {
		return ErrTournamentConflict
	}

	t.CreatedAt = time.Now().UTC()
	t.Version = 1
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament document: %w", err)
	}
	r.docs[t.ID] = memoryDoc{doc: doc, version: t.Version, createdAt: t.CreatedAt}
	return nil
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.docs[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return decodeStored(stored)
}

func (r *memoryTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tournaments := make([]models.Tournament, 0, len(r.docs))
	for _, stored := range r.docs {
		t, err := decodeStored(stored)
		if err != nil {
			return nil, err
		}
		if filter.Format != nil && t.Format != *filter.Format {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		tournaments = append(tournaments, *t)
	}

	sort.Slice(tournaments, func(i, j int) bool {
		return tournaments[i].CreatedAt.After(tournaments[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(tournaments) {
			return []models.Tournament{}, nil
		}
		tournaments = tournaments[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(tournaments) {
		tournaments = tournaments[:filter.Limit]
	}
	return tournaments, nil
}

func (r *memoryTournamentRepository) UpdateDoc(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.docs[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	if stored.version != t.Version {
		return ErrVersionConflict
	}

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament document: %w", err)
	}
	stored.doc = doc
	stored.version++
	r.docs[t.ID] = stored
	t.Version = stored.version
	return nil
}

func (r *memoryTournamentRepository) UpdateBannerKey(ctx context.Context, id string, bannerKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.docs[id]
	if !ok {
		return ErrTournamentNotFound
	}
	stored.bannerKey = bannerKey
	r.docs[id] = stored
	return nil
}

func decodeStored(stored memoryDoc) (*models.Tournament, error) {
	var t models.Tournament
	if err := json.Unmarshal(stored.doc, &t); err != nil {
		return nil, fmt.Errorf("failed to decode tournament document: %w", err)
	}
	t.Version = stored.version
	t.CreatedAt = stored.createdAt
	t.BannerKey = stored.bannerKey
	return &t, nil
}
