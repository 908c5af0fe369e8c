package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
)

var (
	ErrParticipationNotFound = errors.New("participation record not found")
	ErrParticipationConflict = errors.New("player already has a participation record for this race")
	ErrParticipationGroup    = errors.New("group can only be set for an active player")
)

type ParticipationRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, records []*models.RacePlayerAssignment) error
	Get(ctx context.Context, exec SQLExecutor, ref models.ParticipationRef, clubID int) (*models.RacePlayerAssignment, error)
	CountActive(ctx context.Context, exec SQLExecutor, raceID, eventID, teamID int) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus) error
	UpdateGroup(ctx context.Context, exec SQLExecutor, id int, group *string) error
	ListByTeamRace(ctx context.Context, teamID, eventID, raceID int) ([]*models.RacePlayerAssignment, error)
	ListByRace(ctx context.Context, eventID, raceID int) ([]*models.RacePlayerAssignment, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.RacePlayerAssignment, error)
	DeleteByTeamRace(ctx context.Context, exec SQLExecutor, teamID, raceID, eventID int) (int64, error)
	DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) (int64, error)
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participationColumns = `id, player_id, race_id, event_id, team_id, club_id, status, group_name, created_at, updated_at`

func scanParticipation(s rowScanner, a *models.RacePlayerAssignment) error {
	return s.Scan(
		&a.ID, &a.PlayerID, &a.RaceID, &a.EventID, &a.TeamID, &a.ClubID,
		&a.Status, &a.Group, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *postgresParticipationRepository) CreateBatch(ctx context.Context, exec SQLExecutor, records []*models.RacePlayerAssignment) error {
	if len(records) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO race_player_assignments (player_id, race_id, event_id, team_id, club_id, status, group_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	for _, a := range records {
		err := executor.QueryRowContext(ctx, query,
			a.PlayerID, a.RaceID, a.EventID, a.TeamID, a.ClubID, a.Status, a.Group,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err, "race_player_assignments_player_race_event_key") {
				return ErrParticipationConflict
			}
			return fmt.Errorf("failed to create participation for player %d: %w", a.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresParticipationRepository) Get(ctx context.Context, exec SQLExecutor, ref models.ParticipationRef, clubID int) (*models.RacePlayerAssignment, error) {
	query := `SELECT ` + participationColumns + `
		FROM race_player_assignments
		WHERE race_id = $1 AND event_id = $2 AND team_id = $3 AND player_id = $4 AND club_id = $5`

	a := &models.RacePlayerAssignment{}
	err := scanParticipation(r.getExecutor(exec).QueryRowContext(ctx, query,
		ref.RaceID, ref.EventID, ref.TeamID, ref.PlayerID, clubID), a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return a, nil
}

func (r *postgresParticipationRepository) CountActive(ctx context.Context, exec SQLExecutor, raceID, eventID, teamID int) (int, error) {
	query := `
		SELECT COUNT(*) FROM race_player_assignments
		WHERE race_id = $1 AND event_id = $2 AND team_id = $3 AND status = $4`

	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, raceID, eventID, teamID, models.ParticipationActive).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active players: %w", err)
	}
	return n, nil
}

func (r *postgresParticipationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus) error {
	query := `UPDATE race_player_assignments SET status = $1, updated_at = now() WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqCheckViolation {
			return ErrParticipationGroup
		}
		return fmt.Errorf("failed to update participation status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) UpdateGroup(ctx context.Context, exec SQLExecutor, id int, group *string) error {
	query := `UPDATE race_player_assignments SET group_name = $1, updated_at = now() WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, group, id)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqCheckViolation {
			return ErrParticipationGroup
		}
		return fmt.Errorf("failed to update participation group: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*models.RacePlayerAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participation: %w", err)
	}
	defer rows.Close()

	list := make([]*models.RacePlayerAssignment, 0)
	for rows.Next() {
		a := &models.RacePlayerAssignment{}
		if err := scanParticipation(rows, a); err != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", err)
		}
		list = append(list, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation rows: %w", err)
	}
	return list, nil
}

func (r *postgresParticipationRepository) ListByTeamRace(ctx context.Context, teamID, eventID, raceID int) ([]*models.RacePlayerAssignment, error) {
	return r.findMany(ctx, `SELECT `+participationColumns+`
		FROM race_player_assignments WHERE team_id = $1 AND event_id = $2 AND race_id = $3 ORDER BY id`,
		teamID, eventID, raceID)
}

func (r *postgresParticipationRepository) ListByRace(ctx context.Context, eventID, raceID int) ([]*models.RacePlayerAssignment, error) {
	return r.findMany(ctx, `SELECT `+participationColumns+`
		FROM race_player_assignments WHERE event_id = $1 AND race_id = $2 ORDER BY id`,
		eventID, raceID)
}

func (r *postgresParticipationRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.RacePlayerAssignment, error) {
	return r.findMany(ctx, `SELECT `+participationColumns+`
		FROM race_player_assignments WHERE event_id = $1 ORDER BY race_id, id`, eventID)
}

func (r *postgresParticipationRepository) DeleteByTeamRace(ctx context.Context, exec SQLExecutor, teamID, raceID, eventID int) (int64, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM race_player_assignments WHERE team_id = $1 AND race_id = $2 AND event_id = $3`,
		teamID, raceID, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete participation for team: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresParticipationRepository) DeleteByPlayer(ctx context.Context, exec SQLExecutor, playerID int) (int64, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM race_player_assignments WHERE player_id = $1`, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete participation for player: %w", err)
	}
	return result.RowsAffected()
}
