package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
	"github.com/lib/pq"
)

var (
	ErrRaceNotFound     = errors.New("race not found")
	ErrRaceNameConflict = errors.New("race name already exists in this event")
	ErrRaceEventInvalid = errors.New("race event reference is invalid")
	ErrRaceInUse        = errors.New("race has assigned teams")
)

type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	GetByID(ctx context.Context, id int) (*models.Race, error)
	// GetInEvent returns ErrRaceNotFound when the race belongs to another event.
	// Within a transaction the row is held FOR SHARE so active_player_no cannot change underneath.
	GetInEvent(ctx context.Context, exec SQLExecutor, eventID, raceID int) (*models.Race, error)
	// LockByID reads the race with FOR UPDATE; exec must be a transaction.
	LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Race, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Race, error)
	ListByEvents(ctx context.Context, eventIDs []int) ([]*models.Race, error)
	CountByEvent(ctx context.Context, eventID int) (int, error)
	Update(ctx context.Context, exec SQLExecutor, race *models.Race) error
	Delete(ctx context.Context, id int) error
}

type postgresRaceRepository struct {
	db *sql.DB
}

func NewPostgresRaceRepository(db *sql.DB) RaceRepository {
	return &postgresRaceRepository{db: db}
}

func (r *postgresRaceRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const raceColumns = `id, event_id, name, type, distance, date, time, active_player_no, created_by, created_at`

func scanRace(s rowScanner, race *models.Race) error {
	return s.Scan(
		&race.ID, &race.EventID, &race.Name, &race.Type, &race.Distance,
		&race.Date, &race.Time, &race.ActivePlayerNo, &race.CreatedBy, &race.CreatedAt,
	)
}

func (r *postgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	query := `
		INSERT INTO races (event_id, name, type, distance, date, time, active_player_no, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		race.EventID, race.Name, race.Type, race.Distance,
		race.Date, race.Time, race.ActivePlayerNo, race.CreatedBy,
	).Scan(&race.ID, &race.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "races_event_id_name_key") {
			return ErrRaceNameConflict
		}
		if isForeignKeyViolation(err) {
			return ErrRaceEventInvalid
		}
		return fmt.Errorf("failed to create race: %w", err)
	}
	return nil
}

func (r *postgresRaceRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Race, error) {
	race := &models.Race{}
	if err := scanRace(r.getExecutor(exec).QueryRowContext(ctx, query, args...), race); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, nil
}

func (r *postgresRaceRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*models.Race, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	defer rows.Close()

	races := make([]*models.Race, 0)
	for rows.Next() {
		race := &models.Race{}
		if err := scanRace(rows, race); err != nil {
			return nil, fmt.Errorf("failed to scan race row: %w", err)
		}
		races = append(races, race)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating race rows: %w", err)
	}
	return races, nil
}

func (r *postgresRaceRepository) GetByID(ctx context.Context, id int) (*models.Race, error) {
	return r.findOne(ctx, nil, `SELECT `+raceColumns+` FROM races WHERE id = $1`, id)
}

func (r *postgresRaceRepository) GetInEvent(ctx context.Context, exec SQLExecutor, eventID, raceID int) (*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1 AND event_id = $2`
	if exec != nil {
		query += ` FOR SHARE`
	}
	return r.findOne(ctx, exec, query, raceID, eventID)
}

func (r *postgresRaceRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Race, error) {
	return r.findOne(ctx, exec, `SELECT `+raceColumns+` FROM races WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRaceRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Race, error) {
	return r.findMany(ctx, `SELECT `+raceColumns+` FROM races WHERE event_id = $1 ORDER BY date ASC, time ASC, id ASC`, eventID)
}

func (r *postgresRaceRepository) ListByEvents(ctx context.Context, eventIDs []int) ([]*models.Race, error) {
	if len(eventIDs) == 0 {
		return []*models.Race{}, nil
	}
	return r.findMany(ctx, `SELECT `+raceColumns+` FROM races WHERE event_id = ANY($1) ORDER BY event_id, date ASC, time ASC, id ASC`, pq.Array(eventIDs))
}

func (r *postgresRaceRepository) CountByEvent(ctx context.Context, eventID int) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM races WHERE event_id = $1`, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count races: %w", err)
	}
	return n, nil
}

func (r *postgresRaceRepository) Update(ctx context.Context, exec SQLExecutor, race *models.Race) error {
	query := `
		UPDATE races
		SET name = $1, type = $2, distance = $3, date = $4, time = $5, active_player_no = $6
		WHERE id = $7`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		race.Name, race.Type, race.Distance, race.Date, race.Time, race.ActivePlayerNo, race.ID)
	if err != nil {
		if isUniqueViolation(err, "races_event_id_name_key") {
			return ErrRaceNameConflict
		}
		return fmt.Errorf("failed to update race: %w", err)
	}
	return checkAffectedRows(result, ErrRaceNotFound)
}

func (r *postgresRaceRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM races WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrRaceInUse
		}
		return fmt.Errorf("failed to delete race: %w", err)
	}
	return checkAffectedRows(result, ErrRaceNotFound)
}
