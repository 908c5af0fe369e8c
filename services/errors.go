package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/raceday/models"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Сущности
	ErrClubNotFound          = errors.New("club not found")
	ErrPlayerNotFound        = errors.New("Player not found or does not belong to your club")
	ErrTeamNotFound          = errors.New("Team not found or does not belong to your club")
	ErrEventNotFound         = errors.New("event not found")
	ErrRaceNotFound          = errors.New("race not found in this event")
	ErrNoPlayersMatch        = errors.New("No players found with the given criteria")
	ErrParticipationNotFound = errors.New("Player is not assigned to this race in this event")
	ErrRaceTeamNotAssigned   = errors.New("Team is not assigned to this race")
	ErrBibNotFound           = errors.New("bib number not found for this player in this event")

	// Валидация и бизнес-правила
	ErrValidationFailed        = errors.New("validation failed")
	ErrNoFieldsToUpdate        = errors.New("at least one field must be provided for update")
	ErrTeamCapacityExceeded    = errors.New("team capacity exceeded")
	ErrPlayerGenderNotAllowed  = errors.New("player gender is not allowed in this team")
	ErrPlayerAlreadyUnassigned = errors.New("Player is already unassigned")
	ErrPlayerAssignedToTeam    = errors.New("Player is assigned to a team and cannot be deleted. Unassign the player first")
	ErrTeamHasPlayers          = errors.New("Team cannot be deleted while players are assigned to it")
	ErrTeamInRaces             = errors.New("Team cannot be deleted while it is assigned to races. Unassign it from its races first")
	ErrTeamTypeMismatch        = errors.New("Team type does not match the race category")
	ErrTeamTooSmall            = errors.New("Team does not have enough players for this race")
	ErrTeamAlreadyInRace       = errors.New("Team is already assigned to this race")
	ErrTeamHasNoPlayers        = errors.New("No players found in this team")
	ErrActiveLimitReached      = errors.New("Active player limit reached for this race")
	ErrActiveAboveLimit        = errors.New("More players are already active than the new limit allows. Make some of them substitutes first")
	ErrPlayersAlreadyInRace    = errors.New("Some players are already assigned to this race in this event.")
	ErrGroupBlocksSubstitute   = errors.New("Remove the player from the group before making them a substitute")
	ErrGroupRequiresActive     = errors.New("Only active players can be assigned to a group")
	ErrGroupNotSupported       = errors.New("Groups are only available for road races")
	ErrInvalidBibNumber        = errors.New("bib number must be a positive integer")
	ErrBibNumberTaken          = errors.New("This bib number is already assigned in this event.")
	ErrPlayerHasBib            = errors.New("Player already has a bib number assigned in this event.")
	ErrBibNumberInUse          = errors.New("This bib number is already used by another player.")
	ErrEventHasRaces           = errors.New("Event cannot be deleted while it has races")
	ErrRaceHasTeams            = errors.New("Race cannot be deleted while teams are assigned to it")
	ErrStorageNotConfigured    = errors.New("storage not configured")
	ErrInvalidFileType         = errors.New("payment slip must be an image or a PDF document")

	// Конфликты
	ErrClubNameConflict   = errors.New("club name is already registered")
	ErrPlayerCNICConflict = errors.New("a player with this CNIC already exists")
	ErrTeamNameConflict   = errors.New("team name is already in use in this club")
	ErrEventNameConflict  = errors.New("event name already exists")
	ErrRaceNameConflict   = errors.New("race name already exists in this event")

	// Аутентификация и доступ
	ErrInvalidCredentials = errors.New("invalid club name or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current club")
)

// CapacityError reports a team that would overflow; errors.Is matches ErrTeamCapacityExceeded.
type CapacityError struct {
	TeamType  models.TeamType
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("A %s team cannot have more than %d players. Available slots: %d",
		e.TeamType, e.TeamType.Capacity(), e.Available)
}

func (e *CapacityError) Unwrap() error {
	return ErrTeamCapacityExceeded
}

// TeamHasPlayersError lists the players that block a team deletion.
type TeamHasPlayersError struct {
	Players []*models.Player
}

func (e *TeamHasPlayersError) Error() string {
	names := make([]string, 0, len(e.Players))
	for _, p := range e.Players {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.CNIC))
	}
	return "This team has assigned players. Please unassign them before deleting. Players: " + strings.Join(names, ", ")
}

func (e *TeamHasPlayersError) Unwrap() error {
	return ErrTeamHasPlayers
}

// PlayerAssignedError refuses deletion of a player that still belongs to a team.
type PlayerAssignedError struct {
	Name     string
	CNIC     string
	TeamName string
}

func (e *PlayerAssignedError) Error() string {
	return fmt.Sprintf("Player '%s' with CNIC '%s' is assigned to team '%s'. Please unassign the player before deletion.",
		e.Name, e.CNIC, e.TeamName)
}

func (e *PlayerAssignedError) Unwrap() error {
	return ErrPlayerAssignedToTeam
}

// PlayersInRaceError lists team members that already race in this event with another team.
type PlayersInRaceError struct {
	Entries []*models.RacePlayerAssignment
}

func (e *PlayersInRaceError) Error() string {
	if len(e.Entries) == 0 {
		return ErrPlayersAlreadyInRace.Error()
	}
	players := make([]string, 0, len(e.Entries))
	for _, rec := range e.Entries {
		players = append(players, fmt.Sprintf("player %d (team %d)", rec.PlayerID, rec.TeamID))
	}
	return ErrPlayersAlreadyInRace.Error() + " Players: " + strings.Join(players, ", ")
}

func (e *PlayersInRaceError) Unwrap() error {
	return ErrPlayersAlreadyInRace
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}
