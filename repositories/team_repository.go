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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name already exists for this club")
	ErrTeamInUse          = errors.New("team is referenced by players or race assignments")
	ErrTeamClubInvalid    = errors.New("team club reference is invalid")
	ErrTeamMemberConflict = errors.New("player is already a member of a team")
)

type TeamRepository interface {
	Create(ctx context.Context, t *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	GetByName(ctx context.Context, exec SQLExecutor, clubID int, name string) (*models.Team, error)
	// LockByID reads the team with FOR UPDATE; exec must be a transaction.
	LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByClub(ctx context.Context, clubID int, teamType *models.TeamType) ([]*models.Team, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error)
	Update(ctx context.Context, t *models.Team) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	AddPlayers(ctx context.Context, exec SQLExecutor, teamID int, playerIDs []int) error
	RemovePlayer(ctx context.Context, exec SQLExecutor, teamID, playerID int) error
	Count(ctx context.Context) (int, error)
	CountByPaymentStatus(ctx context.Context) (map[models.PaymentStatus]int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, team_name, team_type, description, club_id, payment_status,
	payment_slip_key, payment_slip_url, payment_comment, created_at`

func scanTeam(s rowScanner, t *models.Team) error {
	return s.Scan(
		&t.ID, &t.Name, &t.Type, &t.Description, &t.ClubID, &t.PaymentStatus,
		&t.PaymentSlipKey, &t.PaymentSlipURL, &t.PaymentComment, &t.CreatedAt,
	)
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (team_name, team_type, description, club_id, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	if t.PaymentStatus == "" {
		t.PaymentStatus = models.PaymentUnpaid
	}
	err := r.db.QueryRowContext(ctx, query, t.Name, t.Type, t.Description, t.ClubID, t.PaymentStatus).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "teams_club_id_team_name_key") {
			return ErrTeamNameConflict
		}
		if isForeignKeyViolation(err) {
			return ErrTeamClubInvalid
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	t.PlayerIDs = []int{}
	return nil
}

func (r *postgresTeamRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Team, error) {
	executor := r.getExecutor(exec)
	t := &models.Team{}
	if err := scanTeam(executor.QueryRowContext(ctx, query, args...), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	members, err := r.loadMembers(ctx, executor, []int{t.ID})
	if err != nil {
		return nil, err
	}
	t.PlayerIDs = members[t.ID]
	if t.PlayerIDs == nil {
		t.PlayerIDs = []int{}
	}
	return t, nil
}

// loadMembers returns member ids per team in roster order.
func (r *postgresTeamRepository) loadMembers(ctx context.Context, exec SQLExecutor, teamIDs []int) (map[int][]int, error) {
	query := `SELECT team_id, player_id FROM team_players WHERE team_id = ANY($1) ORDER BY team_id, position ASC`
	rows, err := exec.QueryContext(ctx, query, pq.Array(teamIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	defer rows.Close()

	members := make(map[int][]int, len(teamIDs))
	for rows.Next() {
		var teamID, playerID int
		if err := rows.Scan(&teamID, &playerID); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members[teamID] = append(members[teamID], playerID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	return members, nil
}

func (r *postgresTeamRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	ids := make([]int, 0)
	for rows.Next() {
		t := &models.Team{}
		if err := scanTeam(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, t)
		ids = append(ids, t.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	if len(teams) == 0 {
		return teams, nil
	}

	members, err := r.loadMembers(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		t.PlayerIDs = members[t.ID]
		if t.PlayerIDs == nil {
			t.PlayerIDs = []int{}
		}
	}
	return teams, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	return r.findOne(ctx, exec, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
}

func (r *postgresTeamRepository) GetByName(ctx context.Context, exec SQLExecutor, clubID int, name string) (*models.Team, error) {
	return r.findOne(ctx, exec, `SELECT `+teamColumns+` FROM teams WHERE club_id = $1 AND team_name = $2`, clubID, name)
}

func (r *postgresTeamRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	return r.findOne(ctx, exec, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresTeamRepository) ListByClub(ctx context.Context, clubID int, teamType *models.TeamType) ([]*models.Team, error) {
	var queryBuilder strings.Builder
	args := []interface{}{clubID}

	queryBuilder.WriteString(`SELECT ` + teamColumns + ` FROM teams WHERE club_id = $1`)
	if teamType != nil {
		queryBuilder.WriteString(" AND team_type = $2")
		args = append(args, *teamType)
	}
	queryBuilder.WriteString(" ORDER BY created_at ASC, id ASC")

	return r.findMany(ctx, queryBuilder.String(), args...)
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	if len(ids) == 0 {
		return []*models.Team{}, nil
	}
	return r.findMany(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

func (r *postgresTeamRepository) Update(ctx context.Context, t *models.Team) error {
	query := `
		UPDATE teams
		SET team_name = $1, description = $2, payment_status = $3,
		    payment_slip_key = $4, payment_slip_url = $5, payment_comment = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.PaymentStatus,
		t.PaymentSlipKey, t.PaymentSlipURL, t.PaymentComment,
		t.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "teams_club_id_team_name_key") {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to update team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrTeamInUse
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// AddPlayers appends players to the roster keeping the order of playerIDs.
func (r *postgresTeamRepository) AddPlayers(ctx context.Context, exec SQLExecutor, teamID int, playerIDs []int) error {
	if len(playerIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO team_players (team_id, player_id)
		SELECT $1, m.player_id
		FROM unnest($2::int[]) WITH ORDINALITY AS m(player_id, ord)
		ORDER BY m.ord`

	if _, err := r.getExecutor(exec).ExecContext(ctx, query, teamID, pq.Array(playerIDs)); err != nil {
		if isUniqueViolation(err, "team_players_player_id_key") || isUniqueViolation(err, "team_players_pkey") {
			return ErrTeamMemberConflict
		}
		return fmt.Errorf("failed to add team members: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) RemovePlayer(ctx context.Context, exec SQLExecutor, teamID, playerID int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM team_players WHERE team_id = $1 AND player_id = $2`, teamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return checkAffectedRows(result, ErrPlayerNotInTeam)
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return n, nil
}

func (r *postgresTeamRepository) CountByPaymentStatus(ctx context.Context) (map[models.PaymentStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payment_status, COUNT(*) FROM teams GROUP BY payment_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams by payment status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.PaymentStatus]int)
	for rows.Next() {
		var status models.PaymentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan payment status count: %w", err)
		}
		counts[status] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment status counts: %w", err)
	}
	return counts, nil
}
