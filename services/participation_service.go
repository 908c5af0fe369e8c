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

// ParticipationService двигает запись участия между active и substitute и управляет группой.
type ParticipationService interface {
	UpdatePlayerStatus(ctx context.Context, ref models.ParticipationRef, clubID int, status models.ParticipationStatus) (*models.RacePlayerAssignment, error)
	UpdatePlayerGroup(ctx context.Context, ref models.ParticipationRef, clubID int, group string) (*models.RacePlayerAssignment, error)
	GetTeamPlayersWithStatus(ctx context.Context, teamID, eventID, raceID, clubID int) (*models.TeamRaceView, error)
}

type participationService struct {
	tx                repositories.Transactor
	raceRepo          repositories.RaceRepository
	teamRepo          repositories.TeamRepository
	playerRepo        repositories.PlayerRepository
	raceTeamRepo      repositories.RaceTeamRepository
	participationRepo repositories.ParticipationRepository
	bibRepo           repositories.BibRepository
	publisher         EventPublisher
	logger            *slog.Logger
}

func NewParticipationService(
	tx repositories.Transactor,
	raceRepo repositories.RaceRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	raceTeamRepo repositories.RaceTeamRepository,
	participationRepo repositories.ParticipationRepository,
	bibRepo repositories.BibRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) ParticipationService {
	return &participationService{
		tx:                tx,
		raceRepo:          raceRepo,
		teamRepo:          teamRepo,
		playerRepo:        playerRepo,
		raceTeamRepo:      raceTeamRepo,
		participationRepo: participationRepo,
		bibRepo:           bibRepo,
		publisher:         publisherOrNoop(publisher),
		logger:            logger,
	}
}

// lockRecord locks the race-team row and loads the participation record under it.
func (s *participationService) lockRecord(ctx context.Context, exec repositories.SQLExecutor, ref models.ParticipationRef, clubID int) (*models.Race, *models.RacePlayerAssignment, error) {
	if _, err := s.raceTeamRepo.Lock(ctx, exec, ref.TeamID, ref.RaceID, ref.EventID); err != nil {
		if errors.Is(err, repositories.ErrRaceTeamNotFound) {
			return nil, nil, ErrParticipationNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock race assignment: %w", err)
	}
	rec, err := s.participationRepo.Get(ctx, exec, ref, clubID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return nil, nil, ErrParticipationNotFound
		}
		return nil, nil, fmt.Errorf("failed to get participation: %w", err)
	}
	race, err := s.raceRepo.GetInEvent(ctx, exec, ref.EventID, ref.RaceID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, nil, ErrRaceNotFound
		}
		return nil, nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, rec, nil
}

func (s *participationService) UpdatePlayerStatus(ctx context.Context, ref models.ParticipationRef, clubID int, status models.ParticipationStatus) (*models.RacePlayerAssignment, error) {
	if !status.Valid() {
		return nil, validationError("status must be one of: %s, %s", models.ParticipationActive, models.ParticipationSubstitute)
	}

	var (
		rec     *models.RacePlayerAssignment
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		race, current, err := s.lockRecord(ctx, exec, ref, clubID)
		if err != nil {
			return err
		}
		rec = current
		if rec.Status == status {
			return nil
		}

		switch status {
		case models.ParticipationActive:
			active, err := s.participationRepo.CountActive(ctx, exec, ref.RaceID, ref.EventID, ref.TeamID)
			if err != nil {
				return fmt.Errorf("failed to count active players: %w", err)
			}
			if active >= race.ActivePlayerNo {
				return ErrActiveLimitReached
			}
		case models.ParticipationSubstitute:
			if rec.HasGroup() {
				return ErrGroupBlocksSubstitute
			}
		}

		if err := s.participationRepo.UpdateStatus(ctx, exec, rec.ID, status); err != nil {
			return fmt.Errorf("failed to update participation status: %w", err)
		}
		rec.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.InfoContext(ctx, "Participation status updated",
			slog.Int("race_id", ref.RaceID),
			slog.Int("player_id", ref.PlayerID),
			slog.String("status", string(status)),
		)
		s.publisher.PublishToEvent(ref.EventID, MsgParticipationUpdated, rec)
	}
	return rec, nil
}

func (s *participationService) UpdatePlayerGroup(ctx context.Context, ref models.ParticipationRef, clubID int, group string) (*models.RacePlayerAssignment, error) {
	group = strings.TrimSpace(group)

	var rec *models.RacePlayerAssignment
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		race, current, err := s.lockRecord(ctx, exec, ref, clubID)
		if err != nil {
			return err
		}
		rec = current
		if !race.Type.IsRoadRace() {
			return ErrGroupNotSupported
		}

		var value *string
		if group != "" {
			if rec.Status != models.ParticipationActive {
				return ErrGroupRequiresActive
			}
			value = &group
		}

		if err := s.participationRepo.UpdateGroup(ctx, exec, rec.ID, value); err != nil {
			if errors.Is(err, repositories.ErrParticipationGroup) {
				return ErrGroupRequiresActive
			}
			return fmt.Errorf("failed to update participation group: %w", err)
		}
		rec.Group = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishToEvent(ref.EventID, MsgParticipationUpdated, rec)
	return rec, nil
}

func (s *participationService) GetTeamPlayersWithStatus(ctx context.Context, teamID, eventID, raceID, clubID int) (*models.TeamRaceView, error) {
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
	race, err := s.raceRepo.GetInEvent(ctx, nil, eventID, raceID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	assignment, err := s.raceTeamRepo.Get(ctx, nil, teamID, raceID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceTeamNotFound) {
			return nil, ErrRaceTeamNotAssigned
		}
		return nil, fmt.Errorf("failed to get race assignment: %w", err)
	}

	records, err := s.participationRepo.ListByTeamRace(ctx, teamID, eventID, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participation: %w", err)
	}
	players, err := s.playerRepo.ListByIDs(ctx, team.PlayerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	bibs, err := s.bibRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bibs: %w", err)
	}

	snap := &raceSnapshot{
		teams:         map[int]*models.Team{team.ID: team},
		players:       make(map[int]*models.Player, len(players)),
		clubNames:     map[int]string{},
		participation: make(map[participationKey]*models.RacePlayerAssignment, len(records)),
		bibs:          make(map[int]int, len(bibs)),
	}
	for _, p := range players {
		snap.players[p.ID] = p
	}
	for _, r := range records {
		snap.participation[participationKey{raceID: r.RaceID, playerID: r.PlayerID}] = r
	}
	for _, b := range bibs {
		snap.bibs[b.PlayerID] = b.BibNumber
	}

	views := snap.teamViews(race, []*models.RaceTeamAssignment{assignment})
	if len(views) == 0 {
		return nil, ErrTeamNotFound
	}
	return &views[0], nil
}
