package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
)

type TeamAssignmentService interface {
	AssignPlayersToTeam(ctx context.Context, cnics []string, teamName string, clubID int) (*AssignPlayersResult, error)
	UnassignPlayer(ctx context.Context, cnic string, clubID int) (*models.Player, error)
	CheckPlayerAssignment(ctx context.Context, cnic string, clubID int) (*models.PlayerAssignmentCheck, error)
	DeletePlayer(ctx context.Context, cnic string, clubID int) error
	GetPlayersByFilter(ctx context.Context, input PlayersFilterInput) ([]*models.Player, error)
}

// AssignPlayersResult разбивает запрошенные CNIC по исходам, пакет не прерывается.
type AssignPlayersResult struct {
	AssignedPlayers        int          `json:"assigned_players"`
	MissingPlayers         []string     `json:"missing_players"`
	AlreadyAssignedPlayers []string     `json:"already_assigned_players"`
	IneligiblePlayers      []string     `json:"ineligible_players"`
	Team                   *models.Team `json:"team"`
}

type PlayersFilterInput struct {
	ClubID         int
	TeamName       string
	AssignedStatus string
	TeamTypeKey    string
}

type teamAssignmentService struct {
	tx                repositories.Transactor
	playerRepo        repositories.PlayerRepository
	teamRepo          repositories.TeamRepository
	participationRepo repositories.ParticipationRepository
	bibRepo           repositories.BibRepository
	logger            *slog.Logger
}

func NewTeamAssignmentService(
	tx repositories.Transactor,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	participationRepo repositories.ParticipationRepository,
	bibRepo repositories.BibRepository,
	logger *slog.Logger,
) TeamAssignmentService {
	return &teamAssignmentService{
		tx:                tx,
		playerRepo:        playerRepo,
		teamRepo:          teamRepo,
		participationRepo: participationRepo,
		bibRepo:           bibRepo,
		logger:            logger,
	}
}

func (s *teamAssignmentService) AssignPlayersToTeam(ctx context.Context, cnics []string, teamName string, clubID int) (*AssignPlayersResult, error) {
	cnics = uniqueStrings(cnics)
	teamName = strings.TrimSpace(teamName)
	if len(cnics) == 0 {
		return nil, validationError("at least one player cnic is required")
	}
	if teamName == "" {
		return nil, validationError("team_name is required")
	}

	result := &AssignPlayersResult{
		MissingPlayers:         []string{},
		AlreadyAssignedPlayers: []string{},
		IneligiblePlayers:      []string{},
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		found, err := s.teamRepo.GetByName(ctx, exec, clubID, teamName)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to find team: %w", err)
		}
		// Блокируем строку команды до конца транзакции: проверка вместимости и запись атомарны.
		team, err := s.teamRepo.LockByID(ctx, exec, found.ID)
		if err != nil {
			return fmt.Errorf("failed to lock team: %w", err)
		}

		players, err := s.playerRepo.ListByCNICs(ctx, exec, clubID, cnics)
		if err != nil {
			return fmt.Errorf("failed to load players: %w", err)
		}
		byCNIC := make(map[string]*models.Player, len(players))
		for _, p := range players {
			byCNIC[p.CNIC] = p
		}

		assignable := make([]*models.Player, 0, len(players))
		for _, cnic := range cnics {
			p, ok := byCNIC[cnic]
			switch {
			case !ok:
				result.MissingPlayers = append(result.MissingPlayers, cnic)
			case p.TeamID != nil:
				result.AlreadyAssignedPlayers = append(result.AlreadyAssignedPlayers, cnic)
			case !team.Type.AllowsGender(p.Gender):
				result.IneligiblePlayers = append(result.IneligiblePlayers, cnic)
			default:
				assignable = append(assignable, p)
			}
		}

		if team.Size()+len(assignable) > team.Type.Capacity() {
			return &CapacityError{TeamType: team.Type, Available: team.AvailableSlots()}
		}

		ids := make([]int, 0, len(assignable))
		for _, p := range assignable {
			ids = append(ids, p.ID)
		}
		updated, err := s.playerRepo.AssignTeamIfUnassigned(ctx, exec, ids, team.ID)
		if err != nil {
			return fmt.Errorf("failed to assign players: %w", err)
		}
		updatedSet := make(map[int]struct{}, len(updated))
		for _, id := range updated {
			updatedSet[id] = struct{}{}
		}

		// Порядок состава сохраняет порядок запроса.
		appended := make([]int, 0, len(updated))
		for _, p := range assignable {
			if _, ok := updatedSet[p.ID]; ok {
				appended = append(appended, p.ID)
				continue
			}
			result.AlreadyAssignedPlayers = append(result.AlreadyAssignedPlayers, p.CNIC)
		}

		if err := s.teamRepo.AddPlayers(ctx, exec, team.ID, appended); err != nil {
			return fmt.Errorf("failed to add players to team roster: %w", err)
		}
		team.PlayerIDs = append(team.PlayerIDs, appended...)

		result.AssignedPlayers = len(appended)
		result.Team = team
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Players assigned to team",
		slog.Int("club_id", clubID),
		slog.Int("team_id", result.Team.ID),
		slog.Int("assigned", result.AssignedPlayers),
		slog.Int("missing", len(result.MissingPlayers)),
		slog.Int("already_assigned", len(result.AlreadyAssignedPlayers)),
	)
	return result, nil
}

func (s *teamAssignmentService) UnassignPlayer(ctx context.Context, cnic string, clubID int) (*models.Player, error) {
	var player *models.Player
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		p, err := s.playerRepo.GetByCNIC(ctx, exec, clubID, strings.TrimSpace(cnic))
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("failed to find player: %w", err)
		}
		if p.TeamID == nil {
			return ErrPlayerAlreadyUnassigned
		}
		teamID := *p.TeamID

		if err := s.teamRepo.RemovePlayer(ctx, exec, teamID, p.ID); err != nil {
			if !errors.Is(err, repositories.ErrPlayerNotInTeam) {
				return fmt.Errorf("failed to remove player from roster: %w", err)
			}
			s.logger.WarnContext(ctx, "Roster entry missing while unassigning player",
				slog.Int("player_id", p.ID), slog.Int("team_id", teamID))
		}

		if err := s.playerRepo.ClearTeam(ctx, exec, p.ID, teamID); err != nil {
			if errors.Is(err, repositories.ErrPlayerNotInTeam) {
				return ErrPlayerAlreadyUnassigned
			}
			return fmt.Errorf("failed to clear player team: %w", err)
		}

		p.SetTeam(nil)
		p.TeamName = nil
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Player unassigned from team", slog.Int("club_id", clubID), slog.Int("player_id", player.ID))
	return player, nil
}

func (s *teamAssignmentService) CheckPlayerAssignment(ctx context.Context, cnic string, clubID int) (*models.PlayerAssignmentCheck, error) {
	p, err := s.playerRepo.GetByCNIC(ctx, nil, clubID, strings.TrimSpace(cnic))
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to find player: %w", err)
	}

	check := &models.PlayerAssignmentCheck{
		Assigned: p.TeamID != nil,
		Name:     p.Name,
		CNIC:     p.CNIC,
		TeamName: p.TeamName,
	}
	if check.Assigned {
		check.Message = "Player is assigned to the team: " + derefString(p.TeamName)
	} else {
		check.Message = "Player is unassigned and can be deleted"
	}
	return check, nil
}

func (s *teamAssignmentService) DeletePlayer(ctx context.Context, cnic string, clubID int) error {
	var playerID int
	var staleRecords, staleBibs int64
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		p, err := s.playerRepo.GetByCNIC(ctx, exec, clubID, strings.TrimSpace(cnic))
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return fmt.Errorf("failed to find player: %w", err)
		}
		if p.TeamID != nil {
			return &PlayerAssignedError{Name: p.Name, CNIC: p.CNIC, TeamName: derefString(p.TeamName)}
		}
		playerID = p.ID

		// Записи участия и номера остаются после выхода из команды; удаляем их вместе с игроком.
		if staleRecords, err = s.participationRepo.DeleteByPlayer(ctx, exec, p.ID); err != nil {
			return err
		}
		if staleBibs, err = s.bibRepo.DeleteByPlayer(ctx, exec, p.ID); err != nil {
			return err
		}

		if err := s.playerRepo.Delete(ctx, exec, p.ID); err != nil {
			if errors.Is(err, repositories.ErrPlayerStillInTeam) {
				return ErrPlayerAssignedToTeam
			}
			return fmt.Errorf("failed to delete player: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Player deleted",
		slog.Int("club_id", clubID),
		slog.Int("player_id", playerID),
		slog.Int64("participation_removed", staleRecords),
		slog.Int64("bibs_removed", staleBibs),
	)
	return nil
}

func (s *teamAssignmentService) GetPlayersByFilter(ctx context.Context, input PlayersFilterInput) ([]*models.Player, error) {
	filter := models.PlayerFilter{ClubID: input.ClubID}

	if name := strings.TrimSpace(input.TeamName); name != "" {
		team, err := s.findTeam(ctx, input.ClubID, name)
		if err != nil {
			return nil, err
		}
		assigned := models.AssignmentAssigned
		filter.TeamID = &team.ID
		filter.AssignedTeam = &assigned
	}

	if input.AssignedStatus != "" {
		status := models.AssignmentStatus(strings.TrimSpace(input.AssignedStatus))
		if !status.Valid() {
			return nil, validationError("assigned_team must be 'assigned' or 'unassigned'")
		}
		filter.AssignedTeam = &status

		if status == models.AssignmentUnassigned {
			filter.TeamID = nil
			if key := strings.TrimSpace(input.TeamTypeKey); key != "" {
				team, err := s.findTeam(ctx, input.ClubID, key)
				if err != nil {
					return nil, err
				}
				if team.Type == models.TeamTypeWomenOnly {
					female := models.GenderFemale
					filter.Gender = &female
				}
			}
		}
	}

	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to filter players: %w", err)
	}
	if len(players) == 0 {
		return nil, ErrNoPlayersMatch
	}
	return players, nil
}

func (s *teamAssignmentService) findTeam(ctx context.Context, clubID int, name string) (*models.Team, error) {
	team, err := s.teamRepo.GetByName(ctx, nil, clubID, name)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}
