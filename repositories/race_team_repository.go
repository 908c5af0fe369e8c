package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/raceday/models"
)

var (
	ErrRaceTeamNotFound = errors.New("team is not assigned to this race")
	ErrRaceTeamConflict = errors.New("team is already assigned to this race")
	ErrRaceTeamInvalid  = errors.New("race team assignment reference is invalid")
)

type RaceTeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, a *models.RaceTeamAssignment) error
	Get(ctx context.Context, exec SQLExecutor, teamID, raceID, eventID int) (*models.RaceTeamAssignment, error)
	// Lock reads the assignment with FOR UPDATE; exec must be a transaction.
	Lock(ctx context.Context, exec SQLExecutor, teamID, raceID, eventID int) (*models.RaceTeamAssignment, error)
	ListByRace(ctx context.Context, eventID, raceID int, clubID *int) ([]*models.RaceTeamAssignment, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.RaceTeamAssignment, error)
	ListByTeamAndEvent(ctx context.Context, teamID, eventID int) ([]*models.RaceTeamAssignment, error)
	CountByRace(ctx context.Context, raceID int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresRaceTeamRepository struct {
	db *sql.DB
}

func NewPostgresRaceTeamRepository(db *sql.DB) RaceTeamRepository {
	return &postgresRaceTeamRepository{db: db}
}

func (r *postgresRaceTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const raceTeamColumns = `id, race_id, event_id, team_id, club_id, created_at`

func scanRaceTeam(s rowScanner, a *models.RaceTeamAssignment) error {
	return s.Scan(&a.ID, &a.RaceID, &a.EventID, &a.TeamID, &a.ClubID, &a.CreatedAt)
}

func (r *postgresRaceTeamRepository) Create(ctx context.Context, exec SQLExecutor, a *models.RaceTeamAssignment) error {
	query := `
		INSERT INTO race_team_assignments (race_id, event_id, team_id, club_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, a.RaceID, a.EventID, a.TeamID, a.ClubID).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "race_team_assignments_team_race_event_key") {
			return ErrRaceTeamConflict
		}
		if isForeignKeyViolation(err) {
			return ErrRaceTeamInvalid
		}
		return fmt.Errorf("failed to create race team assignment: %w", err)
	}
	return nil
}

func (r *postgresRaceTeamRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.RaceTeamAssignment, error) {
	a := &models.RaceTeamAssignment{}
	if err := scanRaceTeam(r.getExecutor(exec).QueryRowContext(ctx, query, args...), a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRaceTeamNotFound
		}
		return nil, fmt.Errorf("failed to get race team assignment: %w", err)
	}
	return a, nil
}

func (r *postgresRaceTeamRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*models.RaceTeamAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list race team assignments: %w", err)
	}
	defer rows.Close()

	list := make([]*models.RaceTeamAssignment, 0)
	for rows.Next() {
		a := &models.RaceTeamAssignment{}
		if err := scanRaceTeam(rows, a); err != nil {
			return nil, fmt.Errorf("failed to scan race team assignment: %w", err)
		}
		list = append(list, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating race team assignments: %w", err)
	}
	return list, nil
}

func (r *postgresRaceTeamRepository) Get(ctx context.Context, exec SQLExecutor, teamID, raceID, eventID int) (*models.RaceTeamAssignment, error) {
	query := `SELECT ` + raceTeamColumns + ` FROM race_team_assignments WHERE team_id = $1 AND race_id = $2 AND event_id = $3`
	return r.findOne(ctx, exec, query, teamID, raceID, eventID)
}

func (r *postgresRaceTeamRepository) Lock(ctx context.Context, exec SQLExecutor, teamID, raceID, eventID int) (*models.RaceTeamAssignment, error) {
	query := `SELECT ` + raceTeamColumns + ` FROM race_team_assignments WHERE team_id = $1 AND race_id = $2 AND event_id = $3 FOR UPDATE`
	return r.findOne(ctx, exec, query, teamID, raceID, eventID)
}

func (r *postgresRaceTeamRepository) ListByRace(ctx context.Context, eventID, raceID int, clubID *int) ([]*models.RaceTeamAssignment, error) {
	var queryBuilder strings.Builder
	args := []interface{}{eventID, raceID}

	queryBuilder.WriteString(`SELECT ` + raceTeamColumns + ` FROM race_team_assignments WHERE event_id = $1 AND race_id = $2`)
	if clubID != nil {
		queryBuilder.WriteString(" AND club_id = $3")
		args = append(args, *clubID)
	}
	queryBuilder.WriteString(" ORDER BY created_at ASC, id ASC")

	return r.findMany(ctx, queryBuilder.String(), args...)
}

func (r *postgresRaceTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.RaceTeamAssignment, error) {
	return r.findMany(ctx, `SELECT `+raceTeamColumns+` FROM race_team_assignments WHERE event_id = $1 ORDER BY race_id, created_at ASC, id ASC`, eventID)
}

func (r *postgresRaceTeamRepository) ListByTeamAndEvent(ctx context.Context, teamID, eventID int) ([]*models.RaceTeamAssignment, error) {
	return r.findMany(ctx, `SELECT `+raceTeamColumns+` FROM race_team_assignments WHERE team_id = $1 AND event_id = $2 ORDER BY id`, teamID, eventID)
}

func (r *postgresRaceTeamRepository) CountByRace(ctx context.Context, raceID int) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM race_team_assignments WHERE race_id = $1`, raceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count race team assignments: %w", err)
	}
	return n, nil
}

func (r *postgresRaceTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM race_team_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete race team assignment: %w", err)
	}
	return checkAffectedRows(result, ErrRaceTeamNotFound)
}
