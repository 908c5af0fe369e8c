package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type ClubService interface {
	Register(ctx context.Context, input RegisterClubInput) (*models.Club, error)
	Login(ctx context.Context, input models.Credentials) (*models.Club, string, error)
	GetProfile(ctx context.Context, clubID int) (*models.Club, error)
}

type RegisterClubInput struct {
	Name        string  `json:"name"`
	ClubName    string  `json:"club_name"`
	Description string  `json:"description"`
	PhoneNumber string  `json:"phone_number"`
	Address     *string `json:"address"`
	Password    string  `json:"password"`
}

type clubService struct {
	clubRepo  repositories.ClubRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewClubService(clubRepo repositories.ClubRepository, jwtSecret string, tokenTTL time.Duration) ClubService {
	return &clubService{
		clubRepo:  clubRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (s *clubService) Register(ctx context.Context, input RegisterClubInput) (*models.Club, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.ClubName = strings.TrimSpace(input.ClubName)
	input.Description = strings.TrimSpace(input.Description)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	if input.Name == "" || input.ClubName == "" || input.Description == "" || input.PhoneNumber == "" || input.Password == "" {
		return nil, validationError("name, club_name, description, phone_number and password are required")
	}
	if !phonePattern.MatchString(input.PhoneNumber) {
		return nil, validationError("phone number must contain 10 to 15 digits")
	}
	if len(input.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters long", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	club := &models.Club{
		Name:         input.Name,
		ClubName:     input.ClubName,
		Description:  input.Description,
		PhoneNumber:  input.PhoneNumber,
		Address:      normalizeOptional(input.Address),
		Role:         models.RoleClub,
		PasswordHash: string(hash),
	}

	if err := s.clubRepo.Create(ctx, club); err != nil {
		switch {
		case errors.Is(err, repositories.ErrClubNameConflict):
			return nil, ErrClubNameConflict
		case errors.Is(err, repositories.ErrClubInvalidPhone):
			return nil, validationError("phone number must contain 10 to 15 digits")
		}
		return nil, fmt.Errorf("failed to register club: %w", err)
	}
	return club, nil
}

func (s *clubService) Login(ctx context.Context, input models.Credentials) (*models.Club, string, error) {
	if strings.TrimSpace(input.ClubName) == "" || input.Password == "" {
		return nil, "", validationError("club_name and password are required")
	}

	club, err := s.clubRepo.GetByClubName(ctx, strings.TrimSpace(input.ClubName))
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load club: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(club.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(club)
	if err != nil {
		return nil, "", err
	}
	return club, token, nil
}

func (s *clubService) issueToken(club *models.Club) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"club_id": club.ID,
		"role":    string(club.Role),
		"name":    club.ClubName,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *clubService) GetProfile(ctx context.Context, clubID int) (*models.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get club profile: %w", err)
	}
	return club, nil
}
