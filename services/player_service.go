package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
)

const dateLayout = "2006-01-02"

type PlayerService interface {
	CreatePlayer(ctx context.Context, clubID int, input CreatePlayerInput) (*models.Player, error)
	ListPlayers(ctx context.Context, clubID int) ([]*models.Player, error)
	GetPlayerByCNIC(ctx context.Context, clubID int, cnic string) (*models.Player, error)
	UpdatePlayer(ctx context.Context, clubID int, cnic string, input UpdatePlayerInput) (*models.Player, error)
}

type CreatePlayerInput struct {
	Name             string        `json:"name"`
	CNIC             string        `json:"cnic"`
	DateOfBirth      string        `json:"date_of_birth"`
	Gender           models.Gender `json:"gender"`
	Weight           float64       `json:"weight"`
	FitnessCategory  string        `json:"fitness_category"`
	Contact          string        `json:"contact"`
	EmergencyContact string        `json:"emergency_contact"`
	Disability       *string       `json:"disability"`
}

// UpdatePlayerInput содержит только изменяемые анкетные поля.
type UpdatePlayerInput struct {
	Name             *string        `json:"name"`
	DateOfBirth      *string        `json:"date_of_birth"`
	Gender           *models.Gender `json:"gender"`
	Weight           *float64       `json:"weight"`
	FitnessCategory  *string        `json:"fitness_category"`
	Contact          *string        `json:"contact"`
	EmergencyContact *string        `json:"emergency_contact"`
	Disability       *string        `json:"disability"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
	now        func() time.Time
}

func NewPlayerService(playerRepo repositories.PlayerRepository, teamRepo repositories.TeamRepository) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		now:        time.Now,
	}
}

func parseBirthDate(value string, now time.Time) (time.Time, error) {
	dob, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validationError("date_of_birth must be in YYYY-MM-DD format")
	}
	if dob.After(now) {
		return time.Time{}, validationError("date_of_birth cannot be in the future")
	}
	return dob, nil
}

func (s *playerService) CreatePlayer(ctx context.Context, clubID int, input CreatePlayerInput) (*models.Player, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.CNIC = strings.TrimSpace(input.CNIC)
	input.FitnessCategory = strings.TrimSpace(input.FitnessCategory)
	input.Contact = strings.TrimSpace(input.Contact)
	input.EmergencyContact = strings.TrimSpace(input.EmergencyContact)

	if input.Name == "" || input.CNIC == "" || input.DateOfBirth == "" || input.FitnessCategory == "" ||
		input.Contact == "" || input.EmergencyContact == "" {
		return nil, validationError("name, cnic, date_of_birth, fitness_category, contact and emergency_contact are required")
	}
	if !cnicPattern.MatchString(input.CNIC) {
		return nil, validationError("cnic must contain exactly 13 digits")
	}
	if !input.Gender.Valid() {
		return nil, validationError("gender must be 'male' or 'female'")
	}
	if input.Weight <= 0 {
		return nil, validationError("weight must be positive")
	}

	now := s.now()
	dob, err := parseBirthDate(input.DateOfBirth, now)
	if err != nil {
		return nil, err
	}

	player := &models.Player{
		Name:             input.Name,
		CNIC:             input.CNIC,
		DateOfBirth:      dob,
		Age:              models.AgeAt(dob, now),
		Gender:           input.Gender,
		Weight:           input.Weight,
		FitnessCategory:  input.FitnessCategory,
		Contact:          input.Contact,
		EmergencyContact: input.EmergencyContact,
		Disability:       normalizeOptional(input.Disability),
		ClubID:           clubID,
	}
	player.SetTeam(nil)

	if err := s.playerRepo.Create(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerCNICConflict):
			return nil, ErrPlayerCNICConflict
		case errors.Is(err, repositories.ErrPlayerClubInvalid):
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, clubID int) ([]*models.Player, error) {
	players, err := s.playerRepo.List(ctx, models.PlayerFilter{ClubID: clubID})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *playerService) GetPlayerByCNIC(ctx context.Context, clubID int, cnic string) (*models.Player, error) {
	player, err := s.playerRepo.GetByCNIC(ctx, nil, clubID, strings.TrimSpace(cnic))
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, clubID int, cnic string, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.GetPlayerByCNIC(ctx, clubID, cnic)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		player.Name = name
		changed = true
	}
	if input.DateOfBirth != nil {
		now := s.now()
		dob, err := parseBirthDate(*input.DateOfBirth, now)
		if err != nil {
			return nil, err
		}
		player.DateOfBirth = dob
		player.Age = models.AgeAt(dob, now)
		changed = true
	}
	if input.Gender != nil {
		if !input.Gender.Valid() {
			return nil, validationError("gender must be 'male' or 'female'")
		}
		if player.TeamID != nil && *input.Gender != player.Gender {
			team, err := s.teamRepo.GetByID(ctx, nil, *player.TeamID)
			if err != nil {
				return nil, fmt.Errorf("failed to load player team: %w", err)
			}
			if !team.Type.AllowsGender(*input.Gender) {
				return nil, fmt.Errorf("%w: team '%s' is %s", ErrPlayerGenderNotAllowed, team.Name, team.Type)
			}
		}
		player.Gender = *input.Gender
		changed = true
	}
	if input.Weight != nil {
		if *input.Weight <= 0 {
			return nil, validationError("weight must be positive")
		}
		player.Weight = *input.Weight
		changed = true
	}
	if input.FitnessCategory != nil {
		player.FitnessCategory = strings.TrimSpace(*input.FitnessCategory)
		changed = true
	}
	if input.Contact != nil {
		player.Contact = strings.TrimSpace(*input.Contact)
		changed = true
	}
	if input.EmergencyContact != nil {
		player.EmergencyContact = strings.TrimSpace(*input.EmergencyContact)
		changed = true
	}
	if input.Disability != nil {
		player.Disability = normalizeOptional(input.Disability)
		changed = true
	}
	if !changed {
		return nil, ErrNoFieldsToUpdate
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return player, nil
}
