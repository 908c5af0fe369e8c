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

type RaceService interface {
	CreateRace(ctx context.Context, createdBy int, input CreateRaceInput) (*models.Race, error)
	UpdateRace(ctx context.Context, raceID int, input UpdateRaceInput) (*models.Race, error)
	DeleteRace(ctx context.Context, raceID int) error
	ListRacesByEvent(ctx context.Context, eventID int) ([]*models.Race, error)
}

type CreateRaceInput struct {
	EventID        int     `json:"event_id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Distance       float64 `json:"distance"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	ActivePlayerNo int     `json:"active_player_no"`
}

type UpdateRaceInput struct {
	Name           *string  `json:"name"`
	Type           *string  `json:"type"`
	Distance       *float64 `json:"distance"`
	Date           *string  `json:"date"`
	Time           *string  `json:"time"`
	ActivePlayerNo *int     `json:"active_player_no"`
}

type raceService struct {
	tx                repositories.Transactor
	raceRepo          repositories.RaceRepository
	eventRepo         repositories.EventRepository
	raceTeamRepo      repositories.RaceTeamRepository
	participationRepo repositories.ParticipationRepository
}

func NewRaceService(
	tx repositories.Transactor,
	raceRepo repositories.RaceRepository,
	eventRepo repositories.EventRepository,
	raceTeamRepo repositories.RaceTeamRepository,
	participationRepo repositories.ParticipationRepository,
) RaceService {
	return &raceService{
		tx:                tx,
		raceRepo:          raceRepo,
		eventRepo:         eventRepo,
		raceTeamRepo:      raceTeamRepo,
		participationRepo: participationRepo,
	}
}

func parseRaceDate(value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validationError("date must be in YYYY-MM-DD format")
	}
	return d, nil
}

func parseRaceTypeInput(value string) (models.RaceType, error) {
	rt, err := models.ParseRaceType(strings.TrimSpace(value))
	if err != nil {
		return "", validationError("%v", err)
	}
	return rt, nil
}

func mapRaceWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrRaceNameConflict):
		return ErrRaceNameConflict
	case errors.Is(err, repositories.ErrRaceEventInvalid):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrRaceNotFound):
		return ErrRaceNotFound
	case errors.Is(err, repositories.ErrRaceInUse):
		return ErrRaceHasTeams
	}
	return fmt.Errorf("failed to %s race: %w", action, err)
}

func (s *raceService) CreateRace(ctx context.Context, createdBy int, input CreateRaceInput) (*models.Race, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Time == "" || input.Date == "" {
		return nil, validationError("name, type, distance, date and time are required")
	}
	rt, err := parseRaceTypeInput(input.Type)
	if err != nil {
		return nil, err
	}
	if input.Distance <= 0 {
		return nil, validationError("distance must be positive")
	}
	if input.ActivePlayerNo < 1 {
		return nil, validationError("active_player_no must be at least 1")
	}
	date, err := parseRaceDate(input.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.eventRepo.GetByID(ctx, input.EventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	race := &models.Race{
		EventID:        input.EventID,
		Name:           name,
		Type:           rt,
		Distance:       input.Distance,
		Date:           date,
		Time:           strings.TrimSpace(input.Time),
		ActivePlayerNo: input.ActivePlayerNo,
		CreatedBy:      createdBy,
	}
	if err := s.raceRepo.Create(ctx, race); err != nil {
		return nil, mapRaceWriteError(err, "create")
	}
	return race, nil
}

func (s *raceService) UpdateRace(ctx context.Context, raceID int, input UpdateRaceInput) (*models.Race, error) {
	var race *models.Race
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		// Блокировка строки гонки сериализует смену лимита с переводами игроков в active.
		race, err = s.raceRepo.LockByID(ctx, exec, raceID)
		if err != nil {
			if errors.Is(err, repositories.ErrRaceNotFound) {
				return ErrRaceNotFound
			}
			return fmt.Errorf("failed to lock race: %w", err)
		}
		if err := s.applyRaceUpdate(ctx, race, input); err != nil {
			return err
		}
		if input.ActivePlayerNo != nil {
			if err := s.ensureActiveWithinLimit(ctx, exec, race); err != nil {
				return err
			}
		}
		if err := s.raceRepo.Update(ctx, exec, race); err != nil {
			return mapRaceWriteError(err, "update")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return race, nil
}

func (s *raceService) applyRaceUpdate(ctx context.Context, race *models.Race, input UpdateRaceInput) error {
	changed := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return validationError("name cannot be empty")
		}
		race.Name = name
		changed = true
	}
	if input.Type != nil {
		rt, err := parseRaceTypeInput(*input.Type)
		if err != nil {
			return err
		}
		if rt.Category() != race.Type.Category() {
			n, err := s.raceTeamRepo.CountByRace(ctx, race.ID)
			if err != nil {
				return fmt.Errorf("failed to count race teams: %w", err)
			}
			if n > 0 {
				return fmt.Errorf("%w: category cannot change while teams are assigned", ErrRaceHasTeams)
			}
		}
		race.Type = rt
		changed = true
	}
	if input.Distance != nil {
		if *input.Distance <= 0 {
			return validationError("distance must be positive")
		}
		race.Distance = *input.Distance
		changed = true
	}
	if input.Date != nil {
		date, err := parseRaceDate(*input.Date)
		if err != nil {
			return err
		}
		race.Date = date
		changed = true
	}
	if input.Time != nil {
		race.Time = strings.TrimSpace(*input.Time)
		changed = true
	}
	if input.ActivePlayerNo != nil {
		if *input.ActivePlayerNo < 1 {
			return validationError("active_player_no must be at least 1")
		}
		race.ActivePlayerNo = *input.ActivePlayerNo
		changed = true
	}
	if !changed {
		return ErrNoFieldsToUpdate
	}
	return nil
}

// ensureActiveWithinLimit rejects a limit below the active count of any team already entered in the race.
func (s *raceService) ensureActiveWithinLimit(ctx context.Context, exec repositories.SQLExecutor, race *models.Race) error {
	assigned, err := s.raceTeamRepo.ListByRace(ctx, race.EventID, race.ID, nil)
	if err != nil {
		return fmt.Errorf("failed to list race assignments: %w", err)
	}
	for _, a := range assigned {
		active, err := s.participationRepo.CountActive(ctx, exec, race.ID, race.EventID, a.TeamID)
		if err != nil {
			return fmt.Errorf("failed to count active players: %w", err)
		}
		if active > race.ActivePlayerNo {
			return fmt.Errorf("%w: team %d has %d active players", ErrActiveAboveLimit, a.TeamID, active)
		}
	}
	return nil
}

func (s *raceService) DeleteRace(ctx context.Context, raceID int) error {
	if _, err := s.raceRepo.GetByID(ctx, raceID); err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return ErrRaceNotFound
		}
		return fmt.Errorf("failed to get race: %w", err)
	}
	n, err := s.raceTeamRepo.CountByRace(ctx, raceID)
	if err != nil {
		return fmt.Errorf("failed to count race teams: %w", err)
	}
	if n > 0 {
		return ErrRaceHasTeams
	}
	if err := s.raceRepo.Delete(ctx, raceID); err != nil {
		return mapRaceWriteError(err, "delete")
	}
	return nil
}

func (s *raceService) ListRacesByEvent(ctx context.Context, eventID int) ([]*models.Race, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	races, err := s.raceRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	return races, nil
}
