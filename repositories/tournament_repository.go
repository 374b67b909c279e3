package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cardhouse/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentConflict = errors.New("tournament id conflict")

	// ErrVersionConflict means the compare-and-swap lost to a concurrent
	// writer; the document was not modified and the caller should re-read
	// and re-evaluate its preconditions.
	ErrVersionConflict = errors.New("tournament document version conflict")
)

type ListTournamentsFilter struct {
	Format      *models.TournamentFormat
	Status      *models.TournamentStatus
	OrganizerID *string
	Limit       int
	Offset      int
}

// TournamentRepository persists each tournament as one nested document.
// UpdateDoc is the single mutation path for engine state: it swaps the whole
// document conditionally on the version read, so every precondition checked
// against the in-memory copy holds at write time or the write is rejected.
type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateDoc(ctx context.Context, tournament *models.Tournament) error
	UpdateBannerKey(ctx context.Context, id string, bannerKey *string) error
}

type postgresTournamentRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament document: %w", err)
	}

	query := `
		INSERT INTO tournaments (id, name, format, status, organizer_id, doc, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		RETURNING created_at, version`

	err = r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Format, t.Status, t.OrganizerID, doc,
	).Scan(&t.CreatedAt, &t.Version)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT doc, banner_key, version, created_at
		FROM tournaments
		WHERE id = $1`

	var (
		doc       []byte
		bannerKey sql.NullString
		t         models.Tournament
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&doc, &bannerKey, &t.Version, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	version, createdAt := t.Version, t.CreatedAt
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("failed to decode tournament document %s: %w", id, err)
	}
	t.Version = version
	t.CreatedAt = createdAt
	if bannerKey.Valid {
		key := bannerKey.String
		t.BannerKey = &key
	}
	return &t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `
		SELECT doc, banner_key, version, created_at
		FROM tournaments
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var (
			doc       []byte
			bannerKey sql.NullString
			t         models.Tournament
		)
		if scanErr := rows.Scan(&doc, &bannerKey, &t.Version, &t.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		version, createdAt := t.Version, t.CreatedAt
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("failed to decode tournament document: %w", err)
		}
		t.Version = version
		t.CreatedAt = createdAt
		if bannerKey.Valid {
			key := bannerKey.String
			t.BannerKey = &key
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

// UpdateDoc swaps the full document iff the stored version still matches the
// version the caller read. On success the in-memory version is advanced to
// the stored one.
func (r *postgresTournamentRepository) UpdateDoc(ctx context.Context, t *models.Tournament) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament document: %w", err)
	}

	query := `
		UPDATE tournaments
		SET doc = $1, name = $2, status = $3, version = version + 1
		WHERE id = $4 AND version = $5`

	result, err := r.db.ExecContext(ctx, query, doc, t.Name, t.Status, t.ID, t.Version)
	if err != nil {
		return r.handleTournamentError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		if probeErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM tournaments WHERE id = $1)`, t.ID,
		).Scan(&exists); probeErr != nil {
			return probeErr
		}
		if !exists {
			return ErrTournamentNotFound
		}
		return ErrVersionConflict
	}

	t.Version++
	return nil
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id string, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" {
			return ErrTournamentConflict
		}
	}
	return err
}
