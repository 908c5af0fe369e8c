package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
	"github.com/Dosada05/raceday/storage"
	"github.com/google/uuid"
)

const paymentSlipPrefix = "payment-slips"

type TeamService interface {
	CreateTeam(ctx context.Context, clubID int, input CreateTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context, clubID int, teamType string) ([]*models.Team, error)
	UpdateTeam(ctx context.Context, clubID int, currentName string, input UpdateTeamInput) (*models.Team, error)
	UploadPaymentSlip(ctx context.Context, clubID int, input PaymentSlipInput) (*models.Team, error)
	SetPaymentStatus(ctx context.Context, teamID int, status models.PaymentStatus, comment *string) (*models.Team, error)
	DeleteTeam(ctx context.Context, clubID int, teamName string) error
}

type CreateTeamInput struct {
	TeamName    string          `json:"team_name"`
	TeamType    models.TeamType `json:"team_type"`
	Description *string         `json:"description"`
}

type UpdateTeamInput struct {
	TeamName      *string               `json:"team_name"`
	Description   *string               `json:"description"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
}

type PaymentSlipInput struct {
	TeamName    string
	File        io.Reader
	FileName    string
	ContentType string
	Comment     *string
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

// NewTeamService принимает nil uploader, если хранилище не настроено.
func NewTeamService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, clubID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.TeamName)
	if name == "" {
		return nil, validationError("team_name is required")
	}
	if !input.TeamType.Valid() {
		return nil, validationError("team_type must be 'mix' or 'women-only'")
	}

	team := &models.Team{
		Name:          name,
		Type:          input.TeamType,
		Description:   normalizeOptional(input.Description),
		ClubID:        clubID,
		PaymentStatus: models.PaymentUnpaid,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamClubInvalid):
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, clubID int, teamType string) ([]*models.Team, error) {
	var typeFilter *models.TeamType
	if teamType != "" {
		t := models.TeamType(teamType)
		if !t.Valid() {
			return nil, validationError("Invalid team type. Allowed values: mix, women-only")
		}
		typeFilter = &t
	}

	teams, err := s.teamRepo.ListByClub(ctx, clubID, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	ids := make([]int, 0)
	for _, t := range teams {
		ids = append(ids, t.PlayerIDs...)
	}
	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for _, t := range teams {
		t.Players = make([]models.Player, 0, len(t.PlayerIDs))
		for _, id := range t.PlayerIDs {
			if p, ok := byID[id]; ok {
				t.Players = append(t.Players, *p)
			}
		}
	}
	return teams, nil
}

func (s *teamService) findTeam(ctx context.Context, clubID int, name string) (*models.Team, error) {
	team, err := s.teamRepo.GetByName(ctx, nil, clubID, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

func (s *teamService) saveTeam(ctx context.Context, team *models.Team) error {
	if err := s.teamRepo.Update(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to update team: %w", err)
	}
	return nil
}

func (s *teamService) UpdateTeam(ctx context.Context, clubID int, currentName string, input UpdateTeamInput) (*models.Team, error) {
	if input.TeamName == nil && input.Description == nil && input.PaymentStatus == nil {
		return nil, ErrNoFieldsToUpdate
	}

	team, err := s.findTeam(ctx, clubID, currentName)
	if err != nil {
		return nil, err
	}

	if input.TeamName != nil {
		name := strings.TrimSpace(*input.TeamName)
		if name == "" {
			return nil, validationError("team_name cannot be empty")
		}
		team.Name = name
	}
	if input.Description != nil {
		team.Description = normalizeOptional(input.Description)
	}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.Valid() {
			return nil, validationError("payment_status must be one of unpaid, processing, paid")
		}
		team.PaymentStatus = *input.PaymentStatus
	}

	if err := s.saveTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) UploadPaymentSlip(ctx context.Context, clubID int, input PaymentSlipInput) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	if input.File == nil {
		return nil, validationError("No file uploaded")
	}
	ext, err := GetExtensionFromContentType(input.ContentType, input.FileName)
	if err != nil {
		return nil, err
	}

	team, err := s.findTeam(ctx, clubID, input.TeamName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d/%d/%s%s", paymentSlipPrefix, clubID, team.ID, uuid.NewString(), ext)
	uploaded, err := s.uploader.Upload(ctx, key, input.ContentType, input.File)
	if err != nil {
		return nil, fmt.Errorf("failed to upload payment slip: %w", err)
	}

	oldKey := derefString(team.PaymentSlipKey)
	location := uploaded.Location
	team.PaymentSlipKey = &uploaded.Key
	team.PaymentSlipURL = &location
	team.PaymentStatus = models.PaymentProcessing
	if comment := normalizeOptional(input.Comment); comment != nil {
		team.PaymentComment = comment
	}

	if err := s.saveTeam(ctx, team); err != nil {
		if delErr := s.uploader.Delete(context.Background(), uploaded.Key); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to remove orphaned payment slip", slog.String("key", uploaded.Key), slog.Any("error", delErr))
		}
		return nil, err
	}

	if oldKey != "" && oldKey != uploaded.Key {
		if err := s.uploader.Delete(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete previous payment slip", slog.String("key", oldKey), slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "Payment slip uploaded", slog.Int("club_id", clubID), slog.Int("team_id", team.ID))
	return team, nil
}

func (s *teamService) SetPaymentStatus(ctx context.Context, teamID int, status models.PaymentStatus, comment *string) (*models.Team, error) {
	if !status.Valid() {
		return nil, validationError("payment_status must be one of unpaid, processing, paid")
	}

	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	team.PaymentStatus = status
	if comment != nil {
		team.PaymentComment = normalizeOptional(comment)
	}
	if err := s.saveTeam(ctx, team); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Team payment status changed", slog.Int("team_id", team.ID), slog.String("status", string(status)))
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, clubID int, teamName string) error {
	team, err := s.findTeam(ctx, clubID, teamName)
	if err != nil {
		return err
	}

	assigned, err := s.playerRepo.List(ctx, models.PlayerFilter{ClubID: clubID, TeamID: &team.ID})
	if err != nil {
		return fmt.Errorf("failed to check team players: %w", err)
	}
	if len(assigned) > 0 {
		return &TeamHasPlayersError{Players: assigned}
	}

	if err := s.teamRepo.Delete(ctx, nil, team.ID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamInUse):
			return ErrTeamInRaces
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}

	if key := derefString(team.PaymentSlipKey); key != "" && s.uploader != nil {
		if err := s.uploader.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete payment slip of removed team", slog.String("key", key), slog.Any("error", err))
		}
	}
	return nil
}
