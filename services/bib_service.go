package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
)

type BibService interface {
	AssignBib(ctx context.Context, playerID, eventID, clubID, bibNumber int) (*models.BibAssignment, error)
	UpdateBib(ctx context.Context, playerID, eventID, bibNumber int) (*models.BibAssignment, error)
	GetBib(ctx context.Context, playerID, eventID int) (*models.BibAssignment, error)
}

type bibService struct {
	bibRepo    repositories.BibRepository
	playerRepo repositories.PlayerRepository
	eventRepo  repositories.EventRepository
	clubRepo   repositories.ClubRepository
	publisher  EventPublisher
	logger     *slog.Logger
}

func NewBibService(
	bibRepo repositories.BibRepository,
	playerRepo repositories.PlayerRepository,
	eventRepo repositories.EventRepository,
	clubRepo repositories.ClubRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) BibService {
	return &bibService{
		bibRepo:    bibRepo,
		playerRepo: playerRepo,
		eventRepo:  eventRepo,
		clubRepo:   clubRepo,
		publisher:  publisherOrNoop(publisher),
		logger:     logger,
	}
}

func (s *bibService) AssignBib(ctx context.Context, playerID, eventID, clubID, bibNumber int) (*models.BibAssignment, error) {
	if bibNumber <= 0 {
		return nil, ErrInvalidBibNumber
	}

	player, err := s.playerRepo.GetByID(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if _, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	if player.ClubID != clubID {
		return nil, ErrPlayerNotFound
	}

	if _, err := s.bibRepo.GetByEventNumber(ctx, eventID, bibNumber); err == nil {
		return nil, ErrBibNumberTaken
	} else if !errors.Is(err, repositories.ErrBibNotFound) {
		return nil, fmt.Errorf("failed to check bib number: %w", err)
	}
	if _, err := s.bibRepo.GetByPlayerEvent(ctx, playerID, eventID); err == nil {
		return nil, ErrPlayerHasBib
	} else if !errors.Is(err, repositories.ErrBibNotFound) {
		return nil, fmt.Errorf("failed to check player bib: %w", err)
	}

	bib := &models.BibAssignment{
		PlayerID:  playerID,
		EventID:   eventID,
		ClubID:    clubID,
		BibNumber: bibNumber,
	}
	if err := s.bibRepo.Create(ctx, bib); err != nil {
		switch {
		case errors.Is(err, repositories.ErrBibNumberTaken):
			return nil, ErrBibNumberTaken
		case errors.Is(err, repositories.ErrBibPlayerHasBib):
			return nil, ErrPlayerHasBib
		}
		return nil, fmt.Errorf("failed to create bib: %w", err)
	}

	s.logger.InfoContext(ctx, "Bib assigned",
		slog.Int("event_id", eventID),
		slog.Int("player_id", playerID),
		slog.Int("bib_number", bibNumber),
	)
	s.publisher.PublishToEvent(eventID, MsgBibAssigned, bib)
	return bib, nil
}

func (s *bibService) UpdateBib(ctx context.Context, playerID, eventID, bibNumber int) (*models.BibAssignment, error) {
	if bibNumber <= 0 {
		return nil, ErrInvalidBibNumber
	}

	holder, err := s.bibRepo.GetByEventNumber(ctx, eventID, bibNumber)
	switch {
	case err == nil:
		if holder.PlayerID != playerID {
			return nil, ErrBibNumberInUse
		}
	case !errors.Is(err, repositories.ErrBibNotFound):
		return nil, fmt.Errorf("failed to check bib number: %w", err)
	}

	bib, err := s.bibRepo.GetByPlayerEvent(ctx, playerID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrBibNotFound) {
			return nil, ErrBibNotFound
		}
		return nil, fmt.Errorf("failed to get bib: %w", err)
	}
	if bib.BibNumber == bibNumber {
		return bib, nil
	}

	bib.BibNumber = bibNumber
	if err := s.bibRepo.UpdateNumber(ctx, bib); err != nil {
		switch {
		case errors.Is(err, repositories.ErrBibNumberTaken):
			return nil, ErrBibNumberInUse
		case errors.Is(err, repositories.ErrBibNotFound):
			return nil, ErrBibNotFound
		}
		return nil, fmt.Errorf("failed to update bib: %w", err)
	}

	s.publisher.PublishToEvent(eventID, MsgBibAssigned, bib)
	return bib, nil
}

func (s *bibService) GetBib(ctx context.Context, playerID, eventID int) (*models.BibAssignment, error) {
	bib, err := s.bibRepo.GetByPlayerEvent(ctx, playerID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrBibNotFound) {
			return nil, ErrBibNotFound
		}
		return nil, fmt.Errorf("failed to get bib: %w", err)
	}
	return bib, nil
}
