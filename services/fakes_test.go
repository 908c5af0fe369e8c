package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
	"github.com/Dosada05/raceday/storage"
)

// memStore backs every fake repository so cross-table rules (FK checks,
// team names on players) behave like the Postgres schema.
type memStore struct {
	mu     sync.Mutex
	nextID int
	now    time.Time

	clubs         map[int]*models.Club
	players       map[int]*models.Player
	teams         map[int]*models.Team
	events        map[int]*models.Event
	races         map[int]*models.Race
	raceTeams     map[int]*models.RaceTeamAssignment
	participation map[int]*models.RacePlayerAssignment
	bibs          map[int]*models.BibAssignment
}

func newMemStore() *memStore {
	return &memStore{
		now:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		clubs:         map[int]*models.Club{},
		players:       map[int]*models.Player{},
		teams:         map[int]*models.Team{},
		events:        map[int]*models.Event{},
		races:         map[int]*models.Race{},
		raceTeams:     map[int]*models.RaceTeamAssignment{},
		participation: map[int]*models.RacePlayerAssignment{},
		bibs:          map[int]*models.BibAssignment{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func copyPlayer(p *models.Player) *models.Player {
	cp := *p
	if p.TeamID != nil {
		id := *p.TeamID
		cp.TeamID = &id
	}
	return &cp
}

func copyTeam(t *models.Team) *models.Team {
	cp := *t
	cp.PlayerIDs = append([]int{}, t.PlayerIDs...)
	cp.Players = nil
	return &cp
}

func copyParticipation(r *models.RacePlayerAssignment) *models.RacePlayerAssignment {
	cp := *r
	if r.Group != nil {
		g := *r.Group
		cp.Group = &g
	}
	return &cp
}

// snapshot and restore give the fake transactor rollback semantics.
func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := newMemStore()
	snap.nextID = s.nextID
	for k, v := range s.clubs {
		cp := *v
		snap.clubs[k] = &cp
	}
	for k, v := range s.players {
		snap.players[k] = copyPlayer(v)
	}
	for k, v := range s.teams {
		snap.teams[k] = copyTeam(v)
	}
	for k, v := range s.events {
		cp := *v
		snap.events[k] = &cp
	}
	for k, v := range s.races {
		cp := *v
		snap.races[k] = &cp
	}
	for k, v := range s.raceTeams {
		cp := *v
		snap.raceTeams[k] = &cp
	}
	for k, v := range s.participation {
		snap.participation[k] = copyParticipation(v)
	}
	for k, v := range s.bibs {
		cp := *v
		snap.bibs[k] = &cp
	}
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.clubs = snap.clubs
	s.players = snap.players
	s.teams = snap.teams
	s.events = snap.events
	s.races = snap.races
	s.raceTeams = snap.raceTeams
	s.participation = snap.participation
	s.bibs = snap.bibs
}

type fakeTx struct {
	store *memStore
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	snap := f.store.snapshot()
	if err := fn(nil); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

// ---- clubs ----

type fakeClubRepo struct{ s *memStore }

func (r *fakeClubRepo) Create(ctx context.Context, club *models.Club) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clubs {
		if c.ClubName == club.ClubName {
			return repositories.ErrClubNameConflict
		}
	}
	club.ID = r.s.id()
	club.CreatedAt = r.s.now
	cp := *club
	r.s.clubs[club.ID] = &cp
	return nil
}

func (r *fakeClubRepo) GetByID(ctx context.Context, id int) (*models.Club, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clubs[id]
	if !ok {
		return nil, repositories.ErrClubNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClubRepo) GetByClubName(ctx context.Context, clubName string) (*models.Club, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clubs {
		if c.ClubName == clubName {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrClubNotFound
}

func (r *fakeClubRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.clubs), nil
}

// ---- players ----

type fakePlayerRepo struct{ s *memStore }

func (r *fakePlayerRepo) withTeamName(p *models.Player) *models.Player {
	cp := copyPlayer(p)
	cp.TeamName = nil
	if p.TeamID != nil {
		if t, ok := r.s.teams[*p.TeamID]; ok {
			name := t.Name
			cp.TeamName = &name
		}
	}
	return cp
}

func (r *fakePlayerRepo) Create(ctx context.Context, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clubs[p.ClubID]; !ok {
		return repositories.ErrPlayerClubInvalid
	}
	for _, existing := range r.s.players {
		if existing.CNIC == p.CNIC {
			return repositories.ErrPlayerCNICConflict
		}
	}
	p.SetTeam(nil)
	p.ID = r.s.id()
	p.CreatedAt = r.s.now
	p.UpdatedAt = r.s.now
	r.s.players[p.ID] = copyPlayer(p)
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return r.withTeamName(p), nil
}

func (r *fakePlayerRepo) GetByCNIC(ctx context.Context, exec repositories.SQLExecutor, clubID int, cnic string) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.players {
		if p.ClubID == clubID && p.CNIC == cnic {
			return r.withTeamName(p), nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) ListByCNICs(ctx context.Context, exec repositories.SQLExecutor, clubID int, cnics []string) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[string]struct{}, len(cnics))
	for _, c := range cnics {
		want[c] = struct{}{}
	}
	out := []*models.Player{}
	for _, id := range sortedKeys(r.s.players) {
		p := r.s.players[id]
		if _, ok := want[p.CNIC]; ok && p.ClubID == clubID {
			out = append(out, r.withTeamName(p))
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) ListByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
	if !ok {
		return []*models.Player{}, nil
	}
	out := make([]*models.Player, 0, len(t.PlayerIDs))
	for _, id := range t.PlayerIDs {
		if p, ok := r.s.players[id]; ok {
			out = append(out, r.withTeamName(p))
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.players[id]; ok {
			out = append(out, r.withTeamName(p))
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) List(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Player{}
	for _, id := range sortedKeys(r.s.players) {
		p := r.s.players[id]
		if p.ClubID != filter.ClubID {
			continue
		}
		if filter.TeamID != nil && (p.TeamID == nil || *p.TeamID != *filter.TeamID) {
			continue
		}
		if filter.AssignedTeam != nil && p.AssignedTeam != *filter.AssignedTeam {
			continue
		}
		if filter.Gender != nil && p.Gender != *filter.Gender {
			continue
		}
		out = append(out, r.withTeamName(p))
	}
	return out, nil
}

func (r *fakePlayerRepo) Update(ctx context.Context, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.players[p.ID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	updated := copyPlayer(p)
	updated.TeamID = stored.TeamID
	updated.AssignedTeam = stored.AssignedTeam
	updated.ClubID = stored.ClubID
	updated.CNIC = stored.CNIC
	updated.UpdatedAt = r.s.now
	r.s.players[p.ID] = updated
	return nil
}

func (r *fakePlayerRepo) AssignTeamIfUnassigned(ctx context.Context, exec repositories.SQLExecutor, playerIDs []int, teamID int) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	updated := []int{}
	for _, id := range playerIDs {
		p, ok := r.s.players[id]
		if !ok || p.TeamID != nil {
			continue
		}
		tid := teamID
		p.SetTeam(&tid)
		updated = append(updated, id)
	}
	return updated, nil
}

func (r *fakePlayerRepo) ClearTeam(ctx context.Context, exec repositories.SQLExecutor, playerID, teamID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[playerID]
	if !ok || p.TeamID == nil || *p.TeamID != teamID {
		return repositories.ErrPlayerNotInTeam
	}
	p.SetTeam(nil)
	return nil
}

func (r *fakePlayerRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	if p.TeamID != nil {
		return repositories.ErrPlayerStillInTeam
	}
	delete(r.s.players, id)
	return nil
}

func (r *fakePlayerRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.players), nil
}

// ---- teams ----

type fakeTeamRepo struct{ s *memStore }

func (r *fakeTeamRepo) nameTaken(clubID int, name string, exceptID int) bool {
	for _, t := range r.s.teams {
		if t.ClubID == clubID && t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *fakeTeamRepo) Create(ctx context.Context, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clubs[t.ClubID]; !ok {
		return repositories.ErrTeamClubInvalid
	}
	if r.nameTaken(t.ClubID, t.Name, 0) {
		return repositories.ErrTeamNameConflict
	}
	if t.PaymentStatus == "" {
		t.PaymentStatus = models.PaymentUnpaid
	}
	t.ID = r.s.id()
	t.CreatedAt = r.s.now
	t.PlayerIDs = []int{}
	r.s.teams[t.ID] = copyTeam(t)
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return copyTeam(t), nil
}

func (r *fakeTeamRepo) GetByName(ctx context.Context, exec repositories.SQLExecutor, clubID int, name string) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.teams {
		if t.ClubID == clubID && t.Name == name {
			return copyTeam(t), nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTeamRepo) ListByClub(ctx context.Context, clubID int, teamType *models.TeamType) ([]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Team{}
	for _, id := range sortedKeys(r.s.teams) {
		t := r.s.teams[id]
		if t.ClubID != clubID {
			continue
		}
		if teamType != nil && t.Type != *teamType {
			continue
		}
		out = append(out, copyTeam(t))
	}
	return out, nil
}

func (r *fakeTeamRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.s.teams[id]; ok {
			out = append(out, copyTeam(t))
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) Update(ctx context.Context, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.teams[t.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if r.nameTaken(stored.ClubID, t.Name, t.ID) {
		return repositories.ErrTeamNameConflict
	}
	updated := copyTeam(t)
	updated.PlayerIDs = stored.PlayerIDs
	updated.ClubID = stored.ClubID
	updated.Type = stored.Type
	r.s.teams[t.ID] = updated
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	for _, a := range r.s.raceTeams {
		if a.TeamID == id {
			return repositories.ErrTeamInUse
		}
	}
	delete(r.s.teams, id)
	return nil
}

func (r *fakeTeamRepo) AddPlayers(ctx context.Context, exec repositories.SQLExecutor, teamID int, playerIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for _, id := range playerIDs {
		if t.HasPlayer(id) {
			return repositories.ErrTeamMemberConflict
		}
		t.PlayerIDs = append(t.PlayerIDs, id)
	}
	return nil
}

func (r *fakeTeamRepo) RemovePlayer(ctx context.Context, exec repositories.SQLExecutor, teamID, playerID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
	if !ok || !t.HasPlayer(playerID) {
		return repositories.ErrPlayerNotInTeam
	}
	kept := make([]int, 0, len(t.PlayerIDs)-1)
	for _, id := range t.PlayerIDs {
		if id != playerID {
			kept = append(kept, id)
		}
	}
	t.PlayerIDs = kept
	return nil
}

func (r *fakeTeamRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.teams), nil
}

func (r *fakeTeamRepo) CountByPaymentStatus(ctx context.Context) (map[models.PaymentStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[models.PaymentStatus]int{}
	for _, t := range r.s.teams {
		out[t.PaymentStatus]++
	}
	return out, nil
}

// ---- events ----

type fakeEventRepo struct{ s *memStore }

func (r *fakeEventRepo) nameTaken(name string, exceptID int) bool {
	for _, e := range r.s.events {
		if e.Name == name && e.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *fakeEventRepo) Create(ctx context.Context, e *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(e.Name, 0) {
		return repositories.ErrEventNameConflict
	}
	e.ID = r.s.id()
	e.CreatedAt = r.s.now
	cp := *e
	r.s.events[e.ID] = &cp
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) List(ctx context.Context, status *models.EventStatus) ([]*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Event{}
	for _, id := range sortedKeys(r.s.events) {
		e := r.s.events[id]
		if status != nil && e.Status != *status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, e *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[e.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	if r.nameTaken(e.Name, e.ID) {
		return repositories.ErrEventNameConflict
	}
	cp := *e
	cp.Races = nil
	r.s.events[e.ID] = &cp
	return nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	for _, race := range r.s.races {
		if race.EventID == id {
			return repositories.ErrEventInUse
		}
	}
	delete(r.s.events, id)
	return nil
}

// ---- races ----

type fakeRaceRepo struct{ s *memStore }

func (r *fakeRaceRepo) nameTaken(eventID int, name string, exceptID int) bool {
	for _, race := range r.s.races {
		if race.EventID == eventID && race.Name == name && race.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *fakeRaceRepo) Create(ctx context.Context, race *models.Race) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[race.EventID]; !ok {
		return repositories.ErrRaceEventInvalid
	}
	if r.nameTaken(race.EventID, race.Name, 0) {
		return repositories.ErrRaceNameConflict
	}
	race.ID = r.s.id()
	race.CreatedAt = r.s.now
	cp := *race
	r.s.races[race.ID] = &cp
	return nil
}

func (r *fakeRaceRepo) GetByID(ctx context.Context, id int) (*models.Race, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	race, ok := r.s.races[id]
	if !ok {
		return nil, repositories.ErrRaceNotFound
	}
	cp := *race
	return &cp, nil
}

func (r *fakeRaceRepo) GetInEvent(ctx context.Context, exec repositories.SQLExecutor, eventID, raceID int) (*models.Race, error) {
	race, err := r.GetByID(ctx, raceID)
	if err != nil {
		return nil, err
	}
	if race.EventID != eventID {
		return nil, repositories.ErrRaceNotFound
	}
	return race, nil
}

func (r *fakeRaceRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Race, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRaceRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Race, error) {
	return r.ListByEvents(ctx, []int{eventID})
}

func (r *fakeRaceRepo) ListByEvents(ctx context.Context, eventIDs []int) ([]*models.Race, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[int]struct{}{}
	for _, id := range eventIDs {
		want[id] = struct{}{}
	}
	out := []*models.Race{}
	for _, id := range sortedKeys(r.s.races) {
		race := r.s.races[id]
		if _, ok := want[race.EventID]; ok {
			cp := *race
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRaceRepo) CountByEvent(ctx context.Context, eventID int) (int, error) {
	races, err := r.ListByEvent(ctx, eventID)
	return len(races), err
}

func (r *fakeRaceRepo) Update(ctx context.Context, exec repositories.SQLExecutor, race *models.Race) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.races[race.ID]
	if !ok {
		return repositories.ErrRaceNotFound
	}
	if r.nameTaken(stored.EventID, race.Name, race.ID) {
		return repositories.ErrRaceNameConflict
	}
	cp := *race
	cp.Teams = nil
	r.s.races[race.ID] = &cp
	return nil
}

func (r *fakeRaceRepo) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.races[id]; !ok {
		return repositories.ErrRaceNotFound
	}
	for _, a := range r.s.raceTeams {
		if a.RaceID == id {
			return repositories.ErrRaceInUse
		}
	}
	delete(r.s.races, id)
	return nil
}

// ---- race team assignments ----

type fakeRaceTeamRepo struct{ s *memStore }

func (r *fakeRaceTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, a *models.RaceTeamAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.raceTeams {
		if existing.TeamID == a.TeamID && existing.RaceID == a.RaceID && existing.EventID == a.EventID {
			return repositories.ErrRaceTeamConflict
		}
	}
	a.ID = r.s.id()
	a.CreatedAt = r.s.now
	cp := *a
	r.s.raceTeams[a.ID] = &cp
	return nil
}

func (r *fakeRaceTeamRepo) Get(ctx context.Context, exec repositories.SQLExecutor, teamID, raceID, eventID int) (*models.RaceTeamAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.raceTeams {
		if a.TeamID == teamID && a.RaceID == raceID && a.EventID == eventID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrRaceTeamNotFound
}

func (r *fakeRaceTeamRepo) Lock(ctx context.Context, exec repositories.SQLExecutor, teamID, raceID, eventID int) (*models.RaceTeamAssignment, error) {
	return r.Get(ctx, exec, teamID, raceID, eventID)
}

func (r *fakeRaceTeamRepo) list(match func(a *models.RaceTeamAssignment) bool) []*models.RaceTeamAssignment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.RaceTeamAssignment{}
	for _, id := range sortedKeys(r.s.raceTeams) {
		a := r.s.raceTeams[id]
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeRaceTeamRepo) ListByRace(ctx context.Context, eventID, raceID int, clubID *int) ([]*models.RaceTeamAssignment, error) {
	return r.list(func(a *models.RaceTeamAssignment) bool {
		return a.EventID == eventID && a.RaceID == raceID && (clubID == nil || a.ClubID == *clubID)
	}), nil
}

func (r *fakeRaceTeamRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.RaceTeamAssignment, error) {
	return r.list(func(a *models.RaceTeamAssignment) bool { return a.EventID == eventID }), nil
}

func (r *fakeRaceTeamRepo) ListByTeamAndEvent(ctx context.Context, teamID, eventID int) ([]*models.RaceTeamAssignment, error) {
	return r.list(func(a *models.RaceTeamAssignment) bool {
		return a.TeamID == teamID && a.EventID == eventID
	}), nil
}

func (r *fakeRaceTeamRepo) CountByRace(ctx context.Context, raceID int) (int, error) {
	return len(r.list(func(a *models.RaceTeamAssignment) bool { return a.RaceID == raceID })), nil
}

func (r *fakeRaceTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.raceTeams[id]; !ok {
		return repositories.ErrRaceTeamNotFound
	}
	delete(r.s.raceTeams, id)
	return nil
}

// ---- participation ----

type fakeParticipationRepo struct{ s *memStore }

func (r *fakeParticipationRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, records []*models.RacePlayerAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range records {
		for _, existing := range r.s.participation {
			if existing.PlayerID == rec.PlayerID && existing.RaceID == rec.RaceID && existing.EventID == rec.EventID {
				return repositories.ErrParticipationConflict
			}
		}
		rec.ID = r.s.id()
		rec.CreatedAt = r.s.now
		rec.UpdatedAt = r.s.now
		r.s.participation[rec.ID] = copyParticipation(rec)
	}
	return nil
}

func (r *fakeParticipationRepo) Get(ctx context.Context, exec repositories.SQLExecutor, ref models.ParticipationRef, clubID int) (*models.RacePlayerAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.participation {
		if rec.RaceID == ref.RaceID && rec.EventID == ref.EventID && rec.TeamID == ref.TeamID &&
			rec.PlayerID == ref.PlayerID && rec.ClubID == clubID {
			return copyParticipation(rec), nil
		}
	}
	return nil, repositories.ErrParticipationNotFound
}

func (r *fakeParticipationRepo) CountActive(ctx context.Context, exec repositories.SQLExecutor, raceID, eventID, teamID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, rec := range r.s.participation {
		if rec.RaceID == raceID && rec.EventID == eventID && rec.TeamID == teamID && rec.Status == models.ParticipationActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeParticipationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ParticipationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.participation[id]
	if !ok {
		return repositories.ErrParticipationNotFound
	}
	if status != models.ParticipationActive && rec.HasGroup() {
		return repositories.ErrParticipationGroup
	}
	rec.Status = status
	return nil
}

func (r *fakeParticipationRepo) UpdateGroup(ctx context.Context, exec repositories.SQLExecutor, id int, group *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.participation[id]
	if !ok {
		return repositories.ErrParticipationNotFound
	}
	if group != nil && rec.Status != models.ParticipationActive {
		return repositories.ErrParticipationGroup
	}
	if group == nil {
		rec.Group = nil
		return nil
	}
	g := *group
	rec.Group = &g
	return nil
}

func (r *fakeParticipationRepo) list(match func(rec *models.RacePlayerAssignment) bool) []*models.RacePlayerAssignment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.RacePlayerAssignment{}
	for _, id := range sortedKeys(r.s.participation) {
		rec := r.s.participation[id]
		if match(rec) {
			out = append(out, copyParticipation(rec))
		}
	}
	return out
}

func (r *fakeParticipationRepo) ListByTeamRace(ctx context.Context, teamID, eventID, raceID int) ([]*models.RacePlayerAssignment, error) {
	return r.list(func(rec *models.RacePlayerAssignment) bool {
		return rec.TeamID == teamID && rec.EventID == eventID && rec.RaceID == raceID
	}), nil
}

func (r *fakeParticipationRepo) ListByRace(ctx context.Context, eventID, raceID int) ([]*models.RacePlayerAssignment, error) {
	return r.list(func(rec *models.RacePlayerAssignment) bool {
		return rec.EventID == eventID && rec.RaceID == raceID
	}), nil
}

func (r *fakeParticipationRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.RacePlayerAssignment, error) {
	return r.list(func(rec *models.RacePlayerAssignment) bool { return rec.EventID == eventID }), nil
}

func (r *fakeParticipationRepo) deleteWhere(match func(rec *models.RacePlayerAssignment) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rec := range r.s.participation {
		if match(rec) {
			delete(r.s.participation, id)
			n++
		}
	}
	return n
}

func (r *fakeParticipationRepo) DeleteByTeamRace(ctx context.Context, exec repositories.SQLExecutor, teamID, raceID, eventID int) (int64, error) {
	return r.deleteWhere(func(rec *models.RacePlayerAssignment) bool {
		return rec.TeamID == teamID && rec.RaceID == raceID && rec.EventID == eventID
	}), nil
}

func (r *fakeParticipationRepo) DeleteByPlayer(ctx context.Context, exec repositories.SQLExecutor, playerID int) (int64, error) {
	return r.deleteWhere(func(rec *models.RacePlayerAssignment) bool { return rec.PlayerID == playerID }), nil
}

// ---- bibs ----

type fakeBibRepo struct{ s *memStore }

func (r *fakeBibRepo) Create(ctx context.Context, b *models.BibAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bibs {
		if existing.EventID != b.EventID {
			continue
		}
		if existing.BibNumber == b.BibNumber {
			return repositories.ErrBibNumberTaken
		}
		if existing.PlayerID == b.PlayerID {
			return repositories.ErrBibPlayerHasBib
		}
	}
	b.ID = r.s.id()
	b.CreatedAt = r.s.now
	b.UpdatedAt = r.s.now
	cp := *b
	r.s.bibs[b.ID] = &cp
	return nil
}

func (r *fakeBibRepo) find(match func(b *models.BibAssignment) bool) (*models.BibAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bibs {
		if match(b) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrBibNotFound
}

func (r *fakeBibRepo) GetByPlayerEvent(ctx context.Context, playerID, eventID int) (*models.BibAssignment, error) {
	return r.find(func(b *models.BibAssignment) bool { return b.PlayerID == playerID && b.EventID == eventID })
}

func (r *fakeBibRepo) GetByEventNumber(ctx context.Context, eventID, bibNumber int) (*models.BibAssignment, error) {
	return r.find(func(b *models.BibAssignment) bool { return b.EventID == eventID && b.BibNumber == bibNumber })
}

func (r *fakeBibRepo) UpdateNumber(ctx context.Context, b *models.BibAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var target *models.BibAssignment
	for _, existing := range r.s.bibs {
		if existing.EventID != b.EventID {
			continue
		}
		if existing.PlayerID == b.PlayerID {
			target = existing
			continue
		}
		if existing.BibNumber == b.BibNumber {
			return repositories.ErrBibNumberTaken
		}
	}
	if target == nil {
		return repositories.ErrBibNotFound
	}
	target.BibNumber = b.BibNumber
	target.UpdatedAt = r.s.now
	b.ID = target.ID
	return nil
}

func (r *fakeBibRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.BibAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.BibAssignment{}
	for _, id := range sortedKeys(r.s.bibs) {
		if b := r.s.bibs[id]; b.EventID == eventID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBibRepo) DeleteByPlayer(ctx context.Context, exec repositories.SQLExecutor, playerID int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.bibs {
		if b.PlayerID == playerID {
			delete(r.s.bibs, id)
			n++
		}
	}
	return n, nil
}

// ---- publisher and uploader ----

type publishedMessage struct {
	EventID int
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) PublishToEvent(eventID int, msgType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{EventID: eventID, Type: msgType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Type)
	}
	return out
}

type fakeUploader struct {
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.example.test/" + key
}

// ---- fixture ----

type fixture struct {
	store         *memStore
	tx            *fakeTx
	clubs         *fakeClubRepo
	players       *fakePlayerRepo
	teams         *fakeTeamRepo
	events        *fakeEventRepo
	races         *fakeRaceRepo
	raceTeams     *fakeRaceTeamRepo
	participation *fakeParticipationRepo
	bibs          *fakeBibRepo
	publisher     *recordingPublisher
	logger        *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	return &fixture{
		store:         s,
		tx:            &fakeTx{store: s},
		clubs:         &fakeClubRepo{s: s},
		players:       &fakePlayerRepo{s: s},
		teams:         &fakeTeamRepo{s: s},
		events:        &fakeEventRepo{s: s},
		races:         &fakeRaceRepo{s: s},
		raceTeams:     &fakeRaceTeamRepo{s: s},
		participation: &fakeParticipationRepo{s: s},
		bibs:          &fakeBibRepo{s: s},
		publisher:     &recordingPublisher{},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *fixture) teamAssignment() TeamAssignmentService {
	return NewTeamAssignmentService(f.tx, f.players, f.teams, f.participation, f.bibs, f.logger)
}

func (f *fixture) raceData() RaceDataService {
	return NewRaceDataService(f.events, f.races, f.teams, f.players, f.clubs, f.raceTeams, f.participation, f.bibs)
}

func (f *fixture) raceAssignment() RaceAssignmentService {
	return NewRaceAssignmentService(f.tx, f.clubs, f.events, f.races, f.teams, f.raceTeams, f.participation,
		f.raceData(), f.publisher, f.logger)
}

func (f *fixture) participationService() ParticipationService {
	return NewParticipationService(f.tx, f.races, f.teams, f.players, f.raceTeams, f.participation, f.bibs,
		f.publisher, f.logger)
}

func (f *fixture) bibService() BibService {
	return NewBibService(f.bibs, f.players, f.events, f.clubs, f.publisher, f.logger)
}

func (f *fixture) addClub(t *testing.T, clubName string, role models.Role) *models.Club {
	t.Helper()
	c := &models.Club{Name: "Contact", ClubName: clubName, Description: "d", PhoneNumber: "03001234567", Role: role}
	if err := f.clubs.Create(context.Background(), c); err != nil {
		t.Fatalf("create club: %v", err)
	}
	return c
}

// addPlayer creates a player whose CNIC is derived from n.
func (f *fixture) addPlayer(t *testing.T, clubID, n int, gender models.Gender) *models.Player {
	t.Helper()
	p := &models.Player{
		Name:             "Player " + cnicFor(n),
		CNIC:             cnicFor(n),
		DateOfBirth:      time.Date(1995, 5, 10, 0, 0, 0, 0, time.UTC),
		Age:              30,
		Gender:           gender,
		Weight:           70,
		FitnessCategory:  "amateur",
		Contact:          "03001112222",
		EmergencyContact: "03003334444",
		ClubID:           clubID,
	}
	if err := f.players.Create(context.Background(), p); err != nil {
		t.Fatalf("create player: %v", err)
	}
	return p
}

func cnicFor(n int) string {
	const base = "3520200000000"
	s := []byte(base)
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	copy(s[len(s)-len(digits):], digits)
	return string(s)
}

func (f *fixture) addTeam(t *testing.T, clubID int, name string, teamType models.TeamType) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, Type: teamType, ClubID: clubID}
	if err := f.teams.Create(context.Background(), team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

// addTeamWithPlayers creates a team and assigns n fresh players to it in order.
func (f *fixture) addTeamWithPlayers(t *testing.T, clubID int, name string, teamType models.TeamType, firstCNIC, n int) (*models.Team, []*models.Player) {
	t.Helper()
	team := f.addTeam(t, clubID, name, teamType)
	gender := models.GenderMale
	if teamType == models.TeamTypeWomenOnly {
		gender = models.GenderFemale
	}
	players := make([]*models.Player, 0, n)
	cnics := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := f.addPlayer(t, clubID, firstCNIC+i, gender)
		players = append(players, p)
		cnics = append(cnics, p.CNIC)
	}
	if n > 0 {
		if _, err := f.teamAssignment().AssignPlayersToTeam(context.Background(), cnics, name, clubID); err != nil {
			t.Fatalf("assign players: %v", err)
		}
	}
	return team, players
}

func (f *fixture) addEvent(t *testing.T, name string, publish bool) *models.Event {
	t.Helper()
	e := &models.Event{Name: name, Year: 2026, Location: "Lahore", Status: models.EventUpcoming, PublishTeams: publish}
	if err := f.events.Create(context.Background(), e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func (f *fixture) addRace(t *testing.T, eventID int, name string, raceType models.RaceType, activeNo int) *models.Race {
	t.Helper()
	r := &models.Race{
		EventID:        eventID,
		Name:           name,
		Type:           raceType,
		Distance:       40,
		Date:           time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Time:           "08:00",
		ActivePlayerNo: activeNo,
	}
	if err := f.races.Create(context.Background(), r); err != nil {
		t.Fatalf("create race: %v", err)
	}
	return r
}

func (f *fixture) team(t *testing.T, id int) *models.Team {
	t.Helper()
	team, err := f.teams.GetByID(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	return team
}

func (f *fixture) player(t *testing.T, id int) *models.Player {
	t.Helper()
	p, err := f.players.GetByID(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	return p
}
