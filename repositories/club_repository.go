package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
)

var (
	ErrClubNotFound     = errors.New("club not found")
	ErrClubNameConflict = errors.New("club name already registered")
	ErrClubInvalidPhone = errors.New("club phone number is invalid")
)

type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id int) (*models.Club, error)
	GetByClubName(ctx context.Context, clubName string) (*models.Club, error)
	Count(ctx context.Context) (int, error)
}

type postgresClubRepository struct {
	db *sql.DB
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{db: db}
}

const clubColumns = `id, name, club_name, description, phone_number, address, role, password_hash, created_at`

func (r *postgresClubRepository) Create(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (name, club_name, description, phone_number, address, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		club.Name,
		club.ClubName,
		club.Description,
		club.PhoneNumber,
		club.Address,
		club.Role,
		club.PasswordHash,
	).Scan(&club.ID, &club.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "clubs_club_name_key") {
			return ErrClubNameConflict
		}
		if code, _, ok := pqConstraint(err); ok && code == pqCheckViolation {
			return ErrClubInvalidPhone
		}
		return fmt.Errorf("failed to create club: %w", err)
	}
	return nil
}

func scanClub(s rowScanner, c *models.Club) error {
	return s.Scan(
		&c.ID,
		&c.Name,
		&c.ClubName,
		&c.Description,
		&c.PhoneNumber,
		&c.Address,
		&c.Role,
		&c.PasswordHash,
		&c.CreatedAt,
	)
}

func (r *postgresClubRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Club, error) {
	club := &models.Club{}
	err := scanClub(r.db.QueryRowContext(ctx, query, args...), club)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	return club, nil
}

func (r *postgresClubRepository) GetByID(ctx context.Context, id int) (*models.Club, error) {
	return r.findOne(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, id)
}

func (r *postgresClubRepository) GetByClubName(ctx context.Context, clubName string) (*models.Club, error) {
	return r.findOne(ctx, `SELECT `+clubColumns+` FROM clubs WHERE club_name = $1`, clubName)
}

func (r *postgresClubRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clubs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count clubs: %w", err)
	}
	return n, nil
}
