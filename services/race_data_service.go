package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
	"golang.org/x/sync/errgroup"
)

// RaceDataService собирает составные представления гонок только для чтения.
type RaceDataService interface {
	GetTeamsAndPlayersForRace(ctx context.Context, eventID, raceID int, clubID *int) ([]models.TeamRaceView, error)
	GetFullEventRaceData(ctx context.Context, eventID int) (*models.EventRaceData, error)
	// GetPublishedRaceDataByEvent returns nil when the event does not publish teams.
	GetPublishedRaceDataByEvent(ctx context.Context, eventID int) (*models.EventRaceData, error)
}

type raceDataService struct {
	eventRepo         repositories.EventRepository
	raceRepo          repositories.RaceRepository
	teamRepo          repositories.TeamRepository
	playerRepo        repositories.PlayerRepository
	clubRepo          repositories.ClubRepository
	raceTeamRepo      repositories.RaceTeamRepository
	participationRepo repositories.ParticipationRepository
	bibRepo           repositories.BibRepository
}

func NewRaceDataService(
	eventRepo repositories.EventRepository,
	raceRepo repositories.RaceRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	clubRepo repositories.ClubRepository,
	raceTeamRepo repositories.RaceTeamRepository,
	participationRepo repositories.ParticipationRepository,
	bibRepo repositories.BibRepository,
) RaceDataService {
	return &raceDataService{
		eventRepo:         eventRepo,
		raceRepo:          raceRepo,
		teamRepo:          teamRepo,
		playerRepo:        playerRepo,
		clubRepo:          clubRepo,
		raceTeamRepo:      raceTeamRepo,
		participationRepo: participationRepo,
		bibRepo:           bibRepo,
	}
}

type participationKey struct {
	raceID   int
	playerID int
}

// raceSnapshot holds everything needed to render race views of one event.
type raceSnapshot struct {
	teams         map[int]*models.Team
	players       map[int]*models.Player
	clubNames     map[int]string
	participation map[participationKey]*models.RacePlayerAssignment
	bibs          map[int]int
}

func (s *raceDataService) getEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (s *raceDataService) GetTeamsAndPlayersForRace(ctx context.Context, eventID, raceID int, clubID *int) ([]models.TeamRaceView, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	race, err := s.raceRepo.GetInEvent(ctx, nil, eventID, raceID)
	if err != nil {
		if errors.Is(err, repositories.ErrRaceNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	var (
		assignments   []*models.RaceTeamAssignment
		participation []*models.RacePlayerAssignment
		bibs          []*models.BibAssignment
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignments, err = s.raceTeamRepo.ListByRace(gCtx, eventID, raceID, clubID)
		return err
	})
	g.Go(func() error {
		var err error
		participation, err = s.participationRepo.ListByRace(gCtx, eventID, raceID)
		return err
	})
	g.Go(func() error {
		var err error
		bibs, err = s.bibRepo.ListByEvent(gCtx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load race data: %w", err)
	}

	snap, err := s.loadSnapshot(ctx, assignments, participation, bibs)
	if err != nil {
		return nil, err
	}
	return snap.teamViews(race, assignments), nil
}

func (s *raceDataService) GetFullEventRaceData(ctx context.Context, eventID int) (*models.EventRaceData, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.buildEventRaceData(ctx, event)
}

func (s *raceDataService) GetPublishedRaceDataByEvent(ctx context.Context, eventID int) (*models.EventRaceData, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.PublishTeams {
		return nil, nil
	}
	return s.buildEventRaceData(ctx, event)
}

func (s *raceDataService) buildEventRaceData(ctx context.Context, event *models.Event) (*models.EventRaceData, error) {
	var (
		races         []*models.Race
		assignments   []*models.RaceTeamAssignment
		participation []*models.RacePlayerAssignment
		bibs          []*models.BibAssignment
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		races, err = s.raceRepo.ListByEvent(gCtx, event.ID)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.raceTeamRepo.ListByEvent(gCtx, event.ID)
		return err
	})
	g.Go(func() error {
		var err error
		participation, err = s.participationRepo.ListByEvent(gCtx, event.ID)
		return err
	})
	g.Go(func() error {
		var err error
		bibs, err = s.bibRepo.ListByEvent(gCtx, event.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load event race data: %w", err)
	}

	snap, err := s.loadSnapshot(ctx, assignments, participation, bibs)
	if err != nil {
		return nil, err
	}

	byRace := make(map[int][]*models.RaceTeamAssignment)
	for _, a := range assignments {
		byRace[a.RaceID] = append(byRace[a.RaceID], a)
	}

	data := &models.EventRaceData{
		EventID:   event.ID,
		EventName: event.Name,
		Year:      event.Year,
		Location:  event.Location,
		Races:     make([]models.RaceView, 0, len(races)),
	}
	for _, race := range races {
		data.Races = append(data.Races, models.RaceView{
			ID:             race.ID,
			Name:           race.Name,
			Type:           race.Type,
			Distance:       race.Distance,
			Date:           race.Date.Format(dateLayout),
			Time:           race.Time,
			ActivePlayerNo: race.ActivePlayerNo,
			Teams:          snap.teamViews(race, byRace[race.ID]),
		})
	}
	return data, nil
}

// loadSnapshot resolves teams first, then their players and clubs concurrently.
func (s *raceDataService) loadSnapshot(
	ctx context.Context,
	assignments []*models.RaceTeamAssignment,
	participation []*models.RacePlayerAssignment,
	bibs []*models.BibAssignment,
) (*raceSnapshot, error) {
	snap := &raceSnapshot{
		teams:         make(map[int]*models.Team),
		players:       make(map[int]*models.Player),
		clubNames:     make(map[int]string),
		participation: make(map[participationKey]*models.RacePlayerAssignment, len(participation)),
		bibs:          make(map[int]int, len(bibs)),
	}
	for _, p := range participation {
		snap.participation[participationKey{raceID: p.RaceID, playerID: p.PlayerID}] = p
	}
	for _, b := range bibs {
		snap.bibs[b.PlayerID] = b.BibNumber
	}

	teamIDs := make([]int, 0, len(assignments))
	seenTeams := make(map[int]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seenTeams[a.TeamID]; ok {
			continue
		}
		seenTeams[a.TeamID] = struct{}{}
		teamIDs = append(teamIDs, a.TeamID)
	}
	teams, err := s.teamRepo.ListByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	playerIDs := make([]int, 0)
	clubIDs := make([]int, 0)
	seenClubs := make(map[int]struct{})
	for _, t := range teams {
		snap.teams[t.ID] = t
		playerIDs = append(playerIDs, t.PlayerIDs...)
		if _, ok := seenClubs[t.ClubID]; !ok {
			seenClubs[t.ClubID] = struct{}{}
			clubIDs = append(clubIDs, t.ClubID)
		}
	}

	var players []*models.Player
	clubs := make([]*models.Club, len(clubIDs))
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByIDs(gCtx, playerIDs)
		return err
	})
	for i, id := range clubIDs {
		i, id := i, id
		g.Go(func() error {
			club, err := s.clubRepo.GetByID(gCtx, id)
			if err != nil {
				return err
			}
			clubs[i] = club
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}

	for _, p := range players {
		snap.players[p.ID] = p
	}
	for _, c := range clubs {
		if c != nil {
			snap.clubNames[c.ID] = c.ClubName
		}
	}
	return snap, nil
}

func (snap *raceSnapshot) teamViews(race *models.Race, assignments []*models.RaceTeamAssignment) []models.TeamRaceView {
	views := make([]models.TeamRaceView, 0, len(assignments))
	for _, a := range assignments {
		team, ok := snap.teams[a.TeamID]
		if !ok {
			continue
		}
		view := models.TeamRaceView{
			ID:       team.ID,
			Name:     team.Name,
			Type:     team.Type,
			ClubID:   team.ClubID,
			ClubName: snap.clubNames[team.ClubID],
			Players:  make([]models.PlayerRaceView, 0, len(team.PlayerIDs)),
		}
		for _, playerID := range team.PlayerIDs {
			p, ok := snap.players[playerID]
			if !ok {
				continue
			}
			view.Players = append(view.Players, snap.playerView(race, p))
		}
		views = append(views, view)
	}
	return views
}

func (snap *raceSnapshot) playerView(race *models.Race, p *models.Player) models.PlayerRaceView {
	pv := models.PlayerRaceView{
		ID:     p.ID,
		Name:   p.Name,
		CNIC:   p.CNIC,
		Gender: p.Gender,
		Age:    p.Age,
	}
	if rec, ok := snap.participation[participationKey{raceID: race.ID, playerID: p.ID}]; ok {
		status := rec.Status
		pv.Status = &status
		if race.Type.IsRoadRace() && rec.HasGroup() {
			group := *rec.Group
			pv.Group = &group
		}
	}
	if bib, ok := snap.bibs[p.ID]; ok {
		n := bib
		pv.BibNumber = &n
	}
	return pv
}
