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

type EventService interface {
	CreateEvent(ctx context.Context, createdBy int, input CreateEventInput) (*models.Event, error)
	ListEvents(ctx context.Context, status string) ([]*models.Event, error)
	GetEvent(ctx context.Context, eventID int) (*models.Event, error)
	UpdateEvent(ctx context.Context, eventID int, input UpdateEventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, eventID int) error
	GetEventConfig(ctx context.Context, eventID int) (*EventConfig, error)
	UpdateEventConfig(ctx context.Context, eventID int, update models.EventConfigUpdate) (*EventConfig, error)
	ListEventsWithRaces(ctx context.Context) ([]*models.Event, error)
}

type CreateEventInput struct {
	EventName string     `json:"event_name"`
	Year      int        `json:"year"`
	Location  string     `json:"location"`
	Image     *string    `json:"image"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type UpdateEventInput struct {
	EventName *string             `json:"event_name"`
	Year      *int                `json:"year"`
	Location  *string             `json:"location"`
	Image     *string             `json:"image"`
	Status    *models.EventStatus `json:"status"`
	StartDate *time.Time          `json:"start_date"`
	EndDate   *time.Time          `json:"end_date"`
}

type EventConfig struct {
	EventID                   int  `json:"event_id"`
	RegistrationEnabled       bool `json:"registration_enabled"`
	PublishTeams              bool `json:"publish_teams"`
	PublishLeaderboardPortal  bool `json:"publish_leaderboard_portal"`
	PublishLeaderboardWebsite bool `json:"publish_leaderboard_website"`
}

func eventConfigOf(e *models.Event) *EventConfig {
	return &EventConfig{
		EventID:                   e.ID,
		RegistrationEnabled:       e.RegistrationEnabled,
		PublishTeams:              e.PublishTeams,
		PublishLeaderboardPortal:  e.PublishLeaderboardPortal,
		PublishLeaderboardWebsite: e.PublishLeaderboardWebsite,
	}
}

type eventService struct {
	eventRepo repositories.EventRepository
	raceRepo  repositories.RaceRepository
}

func NewEventService(eventRepo repositories.EventRepository, raceRepo repositories.RaceRepository) EventService {
	return &eventService{
		eventRepo: eventRepo,
		raceRepo:  raceRepo,
	}
}

func validateEventDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return validationError("end_date must not be before start_date")
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, createdBy int, input CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.EventName)
	location := strings.TrimSpace(input.Location)
	if name == "" || location == "" || input.Year <= 0 {
		return nil, validationError("event_name, year and location are required")
	}
	if err := validateEventDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:                name,
		Year:                input.Year,
		Location:            location,
		Image:               normalizeOptional(input.Image),
		Status:              models.EventUpcoming,
		StartDate:           input.StartDate,
		EndDate:             input.EndDate,
		RegistrationEnabled: true,
		CreatedBy:           createdBy,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return nil, ErrEventNameConflict
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, status string) ([]*models.Event, error) {
	var filter *models.EventStatus
	if status != "" {
		st := models.EventStatus(status)
		if !st.Valid() {
			return nil, validationError("status must be 'upcoming' or 'past'")
		}
		filter = &st
	}
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID int, input UpdateEventInput) (*models.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.EventName != nil {
		name := strings.TrimSpace(*input.EventName)
		if name == "" {
			return nil, validationError("event_name cannot be empty")
		}
		event.Name = name
		changed = true
	}
	if input.Year != nil {
		if *input.Year <= 0 {
			return nil, validationError("year must be positive")
		}
		event.Year = *input.Year
		changed = true
	}
	if input.Location != nil {
		location := strings.TrimSpace(*input.Location)
		if location == "" {
			return nil, validationError("location cannot be empty")
		}
		event.Location = location
		changed = true
	}
	if input.Image != nil {
		event.Image = normalizeOptional(input.Image)
		changed = true
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, validationError("status must be 'upcoming' or 'past'")
		}
		event.Status = *input.Status
		changed = true
	}
	if input.StartDate != nil {
		event.StartDate = input.StartDate
		changed = true
	}
	if input.EndDate != nil {
		event.EndDate = input.EndDate
		changed = true
	}
	if !changed {
		return nil, ErrNoFieldsToUpdate
	}
	if err := validateEventDates(event.StartDate, event.EndDate); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventNameConflict):
			return nil, ErrEventNameConflict
		case errors.Is(err, repositories.ErrEventNotFound):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID int) error {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}
	n, err := s.raceRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to count event races: %w", err)
	}
	if n > 0 {
		return ErrEventHasRaces
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventInUse):
			return ErrEventHasRaces
		case errors.Is(err, repositories.ErrEventNotFound):
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (s *eventService) GetEventConfig(ctx context.Context, eventID int) (*EventConfig, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return eventConfigOf(event), nil
}

func (s *eventService) UpdateEventConfig(ctx context.Context, eventID int, update models.EventConfigUpdate) (*EventConfig, error) {
	if update.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	update.Apply(event)
	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event config: %w", err)
	}
	return eventConfigOf(event), nil
}

func (s *eventService) ListEventsWithRaces(ctx context.Context) ([]*models.Event, error) {
	events, err := s.eventRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	ids := make([]int, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	races, err := s.raceRepo.ListByEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}

	byEvent := make(map[int][]models.Race, len(events))
	for _, r := range races {
		byEvent[r.EventID] = append(byEvent[r.EventID], *r)
	}
	for _, e := range events {
		e.Races = byEvent[e.ID]
		if e.Races == nil {
			e.Races = []models.Race{}
		}
	}
	return events, nil
}
