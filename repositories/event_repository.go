package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNameConflict = errors.New("event name already exists")
	ErrEventInUse        = errors.New("event still has races")
)

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, status *models.EventStatus) ([]*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, event_name, year, location, image, status, start_date, end_date,
	registration_enabled, publish_teams, publish_leaderboard_portal, publish_leaderboard_website,
	created_by, created_at`

func scanEvent(s rowScanner, e *models.Event) error {
	return s.Scan(
		&e.ID, &e.Name, &e.Year, &e.Location, &e.Image, &e.Status, &e.StartDate, &e.EndDate,
		&e.RegistrationEnabled, &e.PublishTeams, &e.PublishLeaderboardPortal, &e.PublishLeaderboardWebsite,
		&e.CreatedBy, &e.CreatedAt,
	)
}

func (r *postgresEventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (event_name, year, location, image, status, start_date, end_date,
		                    registration_enabled, publish_teams, publish_leaderboard_portal,
		                    publish_leaderboard_website, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		e.Name, e.Year, e.Location, e.Image, e.Status, e.StartDate, e.EndDate,
		e.RegistrationEnabled, e.PublishTeams, e.PublishLeaderboardPortal,
		e.PublishLeaderboardWebsite, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "events_event_name_key") {
			return ErrEventNameConflict
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	e := &models.Event{}
	err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, status *models.EventStatus) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY year DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e := &models.Event{}
		if err := scanEvent(rows, e); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events
		SET event_name = $1, year = $2, location = $3, image = $4, status = $5,
		    start_date = $6, end_date = $7, registration_enabled = $8, publish_teams = $9,
		    publish_leaderboard_portal = $10, publish_leaderboard_website = $11
		WHERE id = $12`

	result, err := r.db.ExecContext(ctx, query,
		e.Name, e.Year, e.Location, e.Image, e.Status,
		e.StartDate, e.EndDate, e.RegistrationEnabled, e.PublishTeams,
		e.PublishLeaderboardPortal, e.PublishLeaderboardWebsite,
		e.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "events_event_name_key") {
			return ErrEventNameConflict
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrEventInUse
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
