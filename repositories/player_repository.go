package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/raceday/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerCNICConflict = errors.New("player with this cnic already exists")
	ErrPlayerClubInvalid  = errors.New("player club reference is invalid")
	ErrPlayerNotInTeam    = errors.New("player is not a member of the team")
	ErrPlayerStillInTeam  = errors.New("player is still assigned to a team")
)

type PlayerRepository interface {
	Create(ctx context.Context, p *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	GetByCNIC(ctx context.Context, exec SQLExecutor, clubID int, cnic string) (*models.Player, error)
	ListByCNICs(ctx context.Context, exec SQLExecutor, clubID int, cnics []string) ([]*models.Player, error)
	ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Player, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error)
	List(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error)
	Update(ctx context.Context, p *models.Player) error
	// AssignTeamIfUnassigned sets team_id only for players that have none and
	// returns the ids that were actually updated.
	AssignTeamIfUnassigned(ctx context.Context, exec SQLExecutor, playerIDs []int, teamID int) ([]int, error)
	ClearTeam(ctx context.Context, exec SQLExecutor, playerID, teamID int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const selectPlayerSQL = `
	SELECT p.id, p.name, p.cnic, p.date_of_birth, p.age, p.gender, p.weight,
	       p.fitness_category, p.contact, p.emergency_contact, p.disability,
	       p.club_id, p.team_id, p.assigned_team, p.created_at, p.updated_at,
	       t.team_name
	FROM players p
	LEFT JOIN teams t ON t.id = p.team_id`

func scanPlayer(s rowScanner, p *models.Player) error {
	return s.Scan(
		&p.ID, &p.Name, &p.CNIC, &p.DateOfBirth, &p.Age, &p.Gender, &p.Weight,
		&p.FitnessCategory, &p.Contact, &p.EmergencyContact, &p.Disability,
		&p.ClubID, &p.TeamID, &p.AssignedTeam, &p.CreatedAt, &p.UpdatedAt,
		&p.TeamName,
	)
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (name, cnic, date_of_birth, age, gender, weight, fitness_category,
		                     contact, emergency_contact, disability, club_id, team_id, assigned_team)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, $12)
		RETURNING id, created_at, updated_at`

	p.SetTeam(nil)
	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.CNIC, p.DateOfBirth, p.Age, p.Gender, p.Weight, p.FitnessCategory,
		p.Contact, p.EmergencyContact, p.Disability, p.ClubID, p.AssignedTeam,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "players_cnic_key") {
			return ErrPlayerCNICConflict
		}
		if isForeignKeyViolation(err) {
			return ErrPlayerClubInvalid
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Player, error) {
	p := &models.Player{}
	if err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, args...), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) findMany(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p := &models.Player{}
		if err := scanPlayer(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player rows: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	return r.findOne(ctx, exec, selectPlayerSQL+` WHERE p.id = $1`, id)
}

func (r *postgresPlayerRepository) GetByCNIC(ctx context.Context, exec SQLExecutor, clubID int, cnic string) (*models.Player, error) {
	return r.findOne(ctx, exec, selectPlayerSQL+` WHERE p.club_id = $1 AND p.cnic = $2`, clubID, cnic)
}

func (r *postgresPlayerRepository) ListByCNICs(ctx context.Context, exec SQLExecutor, clubID int, cnics []string) ([]*models.Player, error) {
	if len(cnics) == 0 {
		return []*models.Player{}, nil
	}
	return r.findMany(ctx, exec, selectPlayerSQL+` WHERE p.club_id = $1 AND p.cnic = ANY($2) ORDER BY p.id`, clubID, pq.Array(cnics))
}

func (r *postgresPlayerRepository) ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Player, error) {
	query := selectPlayerSQL + `
		JOIN team_players tp ON tp.player_id = p.id
		WHERE tp.team_id = $1
		ORDER BY tp.position ASC`
	return r.findMany(ctx, exec, query, teamID)
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}
	return r.findMany(ctx, nil, selectPlayerSQL+` WHERE p.id = ANY($1) ORDER BY p.id`, pq.Array(ids))
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error) {
	var queryBuilder strings.Builder
	args := []interface{}{filter.ClubID}
	argCounter := 2

	queryBuilder.WriteString(selectPlayerSQL)
	queryBuilder.WriteString(" WHERE p.club_id = $1")

	if filter.TeamID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.team_id = $%d", argCounter))
		args = append(args, *filter.TeamID)
		argCounter++
	}
	if filter.AssignedTeam != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.assigned_team = $%d", argCounter))
		args = append(args, *filter.AssignedTeam)
		argCounter++
	}
	if filter.Gender != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.gender = $%d", argCounter))
		args = append(args, *filter.Gender)
	}
	queryBuilder.WriteString(" ORDER BY p.created_at ASC, p.id ASC")

	return r.findMany(ctx, nil, queryBuilder.String(), args...)
}

// Update пишет только анкетные поля; клуб и команда здесь не меняются.
func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, date_of_birth = $2, age = $3, gender = $4, weight = $5,
		    fitness_category = $6, contact = $7, emergency_contact = $8, disability = $9,
		    updated_at = now()
		WHERE id = $10
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.DateOfBirth, p.Age, p.Gender, p.Weight,
		p.FitnessCategory, p.Contact, p.EmergencyContact, p.Disability,
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) AssignTeamIfUnassigned(ctx context.Context, exec SQLExecutor, playerIDs []int, teamID int) ([]int, error) {
	if len(playerIDs) == 0 {
		return []int{}, nil
	}
	query := `
		UPDATE players
		SET team_id = $1, assigned_team = $2, updated_at = now()
		WHERE id = ANY($3) AND team_id IS NULL
		RETURNING id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, teamID, models.AssignmentAssigned, pq.Array(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to assign players to team: %w", err)
	}
	defer rows.Close()

	updated := make([]int, 0, len(playerIDs))
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assigned player id: %w", err)
		}
		updated = append(updated, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assigned player ids: %w", err)
	}
	return updated, nil
}

func (r *postgresPlayerRepository) ClearTeam(ctx context.Context, exec SQLExecutor, playerID, teamID int) error {
	query := `
		UPDATE players
		SET team_id = NULL, assigned_team = $1, updated_at = now()
		WHERE id = $2 AND team_id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.AssignmentUnassigned, playerID, teamID)
	if err != nil {
		return fmt.Errorf("failed to clear player team: %w", err)
	}
	return checkAffectedRows(result, ErrPlayerNotInTeam)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players WHERE id = $1 AND team_id IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return checkAffectedRows(result, ErrPlayerStillInTeam)
}

func (r *postgresPlayerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return n, nil
}
