package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
)

var (
	ErrBibNotFound       = errors.New("bib assignment not found")
	ErrBibNumberTaken    = errors.New("bib number already assigned in this event")
	ErrBibPlayerHasBib   = errors.New("player already has a bib in this event")
	ErrBibReferenceFault = errors.New("bib assignment reference is invalid")
)

type BibRepository interface {
	Create(ctx context.Context, b *models.BibAssignment) error
	GetByPlayerEvent(ctx context.Context, playerID, eventID int) (*models.BibAssignment, error)
	GetByEventNumber(ctx context.Context, eventID, bibNumber int) (*models.BibAssignment, error)
	UpdateNumber(ctx context.Context, b *models.BibAssignment) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.BibAssignment, error)
	DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) (int64, error)
}

type postgresBibRepository struct {
	db *sql.DB
}

func NewPostgresBibRepository(db *sql.DB) BibRepository {
	return &postgresBibRepository{db: db}
}

const bibColumns = `id, player_id, event_id, club_id, bib_number, created_at, updated_at`

func scanBib(s rowScanner, b *models.BibAssignment) error {
	return s.Scan(&b.ID, &b.PlayerID, &b.EventID, &b.ClubID, &b.BibNumber, &b.CreatedAt, &b.UpdatedAt)
}

func mapBibWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "bib_assignments_event_bib_key"):
		return ErrBibNumberTaken
	case isUniqueViolation(err, "bib_assignments_player_event_key"):
		return ErrBibPlayerHasBib
	case isForeignKeyViolation(err):
		return ErrBibReferenceFault
	}
	return nil
}

func (r *postgresBibRepository) Create(ctx context.Context, b *models.BibAssignment) error {
	query := `
		INSERT INTO bib_assignments (player_id, event_id, club_id, bib_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, b.PlayerID, b.EventID, b.ClubID, b.BibNumber).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if mapped := mapBibWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create bib assignment: %w", err)
	}
	return nil
}

func (r *postgresBibRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.BibAssignment, error) {
	b := &models.BibAssignment{}
	if err := scanBib(r.db.QueryRowContext(ctx, query, args...), b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBibNotFound
		}
		return nil, fmt.Errorf("failed to get bib assignment: %w", err)
	}
	return b, nil
}

func (r *postgresBibRepository) GetByPlayerEvent(ctx context.Context, playerID, eventID int) (*models.BibAssignment, error) {
	return r.findOne(ctx, `SELECT `+bibColumns+` FROM bib_assignments WHERE player_id = $1 AND event_id = $2`, playerID, eventID)
}

func (r *postgresBibRepository) GetByEventNumber(ctx context.Context, eventID, bibNumber int) (*models.BibAssignment, error) {
	return r.findOne(ctx, `SELECT `+bibColumns+` FROM bib_assignments WHERE event_id = $1 AND bib_number = $2`, eventID, bibNumber)
}

func (r *postgresBibRepository) UpdateNumber(ctx context.Context, b *models.BibAssignment) error {
	query := `
		UPDATE bib_assignments SET bib_number = $1, updated_at = now()
		WHERE player_id = $2 AND event_id = $3
		RETURNING id, club_id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, b.BibNumber, b.PlayerID, b.EventID).
		Scan(&b.ID, &b.ClubID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBibNotFound
		}
		if mapped := mapBibWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update bib assignment: %w", err)
	}
	return nil
}

func (r *postgresBibRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.BibAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bibColumns+` FROM bib_assignments WHERE event_id = $1 ORDER BY bib_number`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bib assignments: %w", err)
	}
	defer rows.Close()

	bibs := make([]*models.BibAssignment, 0)
	for rows.Next() {
		b := &models.BibAssignment{}
		if err := scanBib(rows, b); err != nil {
			return nil, fmt.Errorf("failed to scan bib assignment: %w", err)
		}
		bibs = append(bibs, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bib assignments: %w", err)
	}
	return bibs, nil
}

func (r *postgresBibRepository) DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) (int64, error) {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM bib_assignments WHERE player_id = $1`, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bib assignments for player: %w", err)
	}
	return result.RowsAffected()
}
