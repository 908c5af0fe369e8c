package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
)

type RaceAssignmentService interface {
	AssignTeam(ctx context.Context, raceID, eventID, teamID, clubID int) (*AssignTeamResult, error)
	UnassignTeam(ctx context.Context, raceID, eventID, teamID, clubID int) error
	GetUnassignedTeams(ctx context.Context, eventID, raceID, clubID int) ([]*models.Team, error)
	GetAssignedTeams(ctx context.Context, eventID, raceID, clubID int) ([]models.TeamRaceView, error)
	GetMissingRacesForTeam(ctx context.Context, teamID, eventID, clubID int) ([]*models.Race, error)
}

type AssignTeamResult struct {
	Assignment *models.RaceTeamAssignment    `json:"assignment"`
	Players    []*models.RacePlayerAssignment `json:"players"`
}

type raceAssignmentService struct {
	tx                repositories.Transactor
	clubRepo          repositories.ClubRepository
	eventRepo         repositories.EventRepository
	raceRepo          repositories.RaceRepository
	teamRepo          repositories.TeamRepository
	raceTeamRepo      repositories.RaceTeamRepository
	participationRepo repositories.ParticipationRepository
	raceData          RaceDataService
	publisher         EventPublisher
	logger            *slog.Logger
}

func NewRaceAssignmentService(
	tx repositories.Transactor,
	clubRepo repositories.ClubRepository,
	eventRepo repositories.EventRepository,
	raceRepo repositories.RaceRepository,
	teamRepo repositories.TeamRepository,
	raceTeamRepo repositories.RaceTeamRepository,
	participationRepo repositories.ParticipationRepository,
	raceData RaceDataService,
	publisher EventPublisher,
	logger *slog.Logger,
) RaceAssignmentService {
	return &raceAssignmentService{
		tx:                tx,
		clubRepo:          clubRepo,
		eventRepo:         eventRepo,
		raceRepo:          raceRepo,
		teamRepo:          teamRepo,
		raceTeamRepo:      raceTeamRepo,
		participationRepo: participationRepo,
		raceData:          raceData,
		publisher:         publisherOrNoop(publisher),
		logger:            logger,
	}
}

func (s *raceAssignmentService) ensureClubAndEvent(ctx context.Context, clubID, eventID int) error {
	if _, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return ErrClubNotFound
		}
		return fmt.Errorf("failed to get club: %w", err)
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to get event: %w", err)
	}
	return nil
}

func (s *raceAssignmentService) raceInEvent(ctx context.Context, exec repositories.SQLExecutor, eventID, raceID int) (*models.Race, error) {
	race, err := s.raceRepo.GetInEvent(ctx, exec, eventID, raceID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, nil
}

func (s *raceAssignmentService) AssignTeam(ctx context.Context, raceID, eventID, teamID, clubID int) (*AssignTeamResult, error) {
	if err := s.ensureClubAndEvent(ctx, clubID, eventID); err != nil {
		return nil, err
	}

	result := &AssignTeamResult{}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		race, err := s.raceInEvent(ctx, exec, eventID, raceID)
		if err != nil {
			return err
		}

		// Состав команды не меняется, пока идёт посев участников.
		team, err := s.teamRepo.LockByID(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to lock team: %w", err)
		}
		if team.ClubID != clubID {
			return ErrTeamNotFound
		}
		if !race.Accepts(team.Type) {
			return ErrTeamTypeMismatch
		}

		_, err = s.raceTeamRepo.Get(ctx, exec, teamID, raceID, eventID)
		switch {
		case err == nil:
			return ErrTeamAlreadyInRace
		case !errors.Is(err, repositories.ErrRaceTeamNotFound):
			return fmt.Errorf("failed to check race assignment: %w", err)
		}

		if team.Size() == 0 {
			return ErrTeamHasNoPlayers
		}
		if team.Size() < team.Type.MinRaceRoster() {
			return ErrTeamTooSmall
		}
		if err := s.ensurePlayersFree(ctx, team, raceID, eventID); err != nil {
			return err
		}

		assignment := &models.RaceTeamAssignment{
			RaceID:  raceID,
			EventID: eventID,
			TeamID:  teamID,
			ClubID:  clubID,
		}
		if err := s.raceTeamRepo.Create(ctx, exec, assignment); err != nil {
			if errors.Is(err, repositories.ErrRaceTeamConflict) {
				return ErrTeamAlreadyInRace
			}
			return fmt.Errorf("failed to create race assignment: %w", err)
		}

		records := models.SeedParticipation(assignment, team.PlayerIDs, race.ActivePlayerNo)
		if err := s.participationRepo.CreateBatch(ctx, exec, records); err != nil {
			if errors.Is(err, repositories.ErrParticipationConflict) {
				return &PlayersInRaceError{}
			}
			return fmt.Errorf("failed to seed participation: %w", err)
		}

		result.Assignment = assignment
		result.Players = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Team assigned to race",
		slog.Int("event_id", eventID),
		slog.Int("race_id", raceID),
		slog.Int("team_id", teamID),
		slog.Int("players", len(result.Players)),
	)
	s.publisher.PublishToEvent(eventID, MsgTeamAssigned, result)
	return result, nil
}

// ensurePlayersFree rejects the entry when a member already races here with a previous team.
func (s *raceAssignmentService) ensurePlayersFree(ctx context.Context, team *models.Team, raceID, eventID int) error {
	existing, err := s.participationRepo.ListByRace(ctx, eventID, raceID)
	if err != nil {
		return fmt.Errorf("failed to list race participation: %w", err)
	}
	members := make(map[int]struct{}, len(team.PlayerIDs))
	for _, id := range team.PlayerIDs {
		members[id] = struct{}{}
	}
	var taken []*models.RacePlayerAssignment
	for _, rec := range existing {
		if _, ok := members[rec.PlayerID]; ok {
			taken = append(taken, rec)
		}
	}
	if len(taken) > 0 {
		return &PlayersInRaceError{Entries: taken}
	}
	return nil
}

func (s *raceAssignmentService) UnassignTeam(ctx context.Context, raceID, eventID, teamID, clubID int) error {
	var removed int64
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		a, err := s.raceTeamRepo.Lock(ctx, exec, teamID, raceID, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrRaceTeamNotFound) {
				return ErrRaceTeamNotAssigned
			}
			return fmt.Errorf("failed to lock race assignment: %w", err)
		}
		if a.ClubID != clubID {
			return ErrRaceTeamNotAssigned
		}

		removed, err = s.participationRepo.DeleteByTeamRace(ctx, exec, teamID, raceID, eventID)
		if err != nil {
			return fmt.Errorf("failed to delete participation: %w", err)
		}
		if err := s.raceTeamRepo.Delete(ctx, exec, a.ID); err != nil {
			return fmt.Errorf("failed to delete race assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Team unassigned from race",
		slog.Int("event_id", eventID),
		slog.Int("race_id", raceID),
		slog.Int("team_id", teamID),
		slog.Int64("participation_removed", removed),
	)
	s.publisher.PublishToEvent(eventID, MsgTeamUnassigned, map[string]int{
		"race_id": raceID,
		"team_id": teamID,
	})
	return nil
}

func (s *raceAssignmentService) GetUnassignedTeams(ctx context.Context, eventID, raceID, clubID int) ([]*models.Team, error) {
	if err := s.ensureClubAndEvent(ctx, clubID, eventID); err != nil {
		return nil, err
	}
	race, err := s.raceInEvent(ctx, nil, eventID, raceID)
	if err != nil {
		return nil, err
	}

	category := race.Type.Category()
	teams, err := s.teamRepo.ListByClub(ctx, clubID, &category)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	assigned, err := s.raceTeamRepo.ListByRace(ctx, eventID, raceID, &clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list race assignments: %w", err)
	}
	assignedSet := make(map[int]struct{}, len(assigned))
	for _, a := range assigned {
		assignedSet[a.TeamID] = struct{}{}
	}

	out := make([]*models.Team, 0, len(teams))
	for _, t := range teams {
		if _, ok := assignedSet[t.ID]; ok {
			continue
		}
		if t.Size() < t.Type.MinRaceRoster() {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *raceAssignmentService) GetAssignedTeams(ctx context.Context, eventID, raceID, clubID int) ([]models.TeamRaceView, error) {
	return s.raceData.GetTeamsAndPlayersForRace(ctx, eventID, raceID, &clubID)
}

func (s *raceAssignmentService) GetMissingRacesForTeam(ctx context.Context, teamID, eventID, clubID int) ([]*models.Race, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team.ClubID != clubID {
		return nil, ErrTeamNotFound
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	expected := make(map[models.RaceType]struct{}, 3)
	for _, rt := range models.RaceTypesFor(team.Type) {
		expected[rt] = struct{}{}
	}

	races, err := s.raceRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	joined, err := s.raceTeamRepo.ListByTeamAndEvent(ctx, teamID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team races: %w", err)
	}
	joinedSet := make(map[int]struct{}, len(joined))
	for _, a := range joined {
		joinedSet[a.RaceID] = struct{}{}
	}

	missing := make([]*models.Race, 0)
	for _, r := range races {
		if _, ok := expected[r.Type]; !ok {
			continue
		}
		if _, ok := joinedSet[r.ID]; ok {
			continue
		}
		missing = append(missing, r)
	}
	return missing, nil
}
