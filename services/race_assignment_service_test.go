package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Dosada05/raceday/models"
)

type raceSetup struct {
	club   *models.Club
	event  *models.Event
	race   *models.Race
	team   *models.Team
	roster []*models.Player
}

func newRaceSetup(t *testing.T, f *fixture, raceType models.RaceType, activeNo, teamSize int) raceSetup {
	t.Helper()
	club := f.addClub(t, "Islamabad Cycling", models.RoleClub)
	event := f.addEvent(t, "Tour de Margalla", true)
	race := f.addRace(t, event.ID, "Stage 1", raceType, activeNo)
	team, roster := f.addTeamWithPlayers(t, club.ID, "Falcons", raceType.Category(), 1, teamSize)
	return raceSetup{club: club, event: event, race: race, team: team, roster: roster}
}

func TestAssignTeam_SeedsParticipationInRosterOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rs := newRaceSetup(t, f, models.RaceRoadMix, 6, 8)

	res, err := f.raceAssignment().AssignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID)
	if err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}
	if len(res.Players) != 8 {
		t.Fatalf("seeded %d records, want 8", len(res.Players))
	}

	records, _ := f.participation.ListByTeamRace(ctx, rs.team.ID, rs.event.ID, rs.race.ID)
	status := make(map[int]models.ParticipationStatus, len(records))
	for _, r := range records {
		status[r.PlayerID] = r.Status
	}
	for i, p := range rs.roster {
		want := models.ParticipationSubstitute
		if i < 6 {
			want = models.ParticipationActive
		}
		if status[p.ID] != want {
			t.Errorf("roster position %d: status %q, want %q", i, status[p.ID], want)
		}
	}

	if got := f.publisher.types(); !reflect.DeepEqual(got, []string{MsgTeamAssigned}) {
		t.Errorf("published %v, want [%s]", got, MsgTeamAssigned)
	}
}

func TestAssignTeam_RejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rs := newRaceSetup(t, f, models.RaceITTMix, 6, 6)
	svc := f.raceAssignment()

	if _, err := svc.AssignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID); err != nil {
		t.Fatalf("first AssignTeam: %v", err)
	}
	_, err := svc.AssignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID)
	if !errors.Is(err, ErrTeamAlreadyInRace) {
		t.Fatalf("second AssignTeam: got %v, want ErrTeamAlreadyInRace", err)
	}

	if n, _ := f.raceTeams.CountByRace(ctx, rs.race.ID); n != 1 {
		t.Errorf("race assignments = %d, want 1", n)
	}
	if recs, _ := f.participation.ListByRace(ctx, rs.event.ID, rs.race.ID); len(recs) != 6 {
		t.Errorf("participation records = %d, want 6", len(recs))
	}
}

func TestAssignTeam_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rs := newRaceSetup(t, f, models.RaceRoadMix, 6, 6)
	otherEvent := f.addEvent(t, "Other Event", false)
	womenRace := f.addRace(t, rs.event.ID, "Women Stage", models.RaceRoadWomen, 4)
	small, _ := f.addTeamWithPlayers(t, rs.club.ID, "Sparrows", models.TeamTypeMix, 100, 5)
	empty := f.addTeam(t, rs.club.ID, "Empty", models.TeamTypeMix)
	rival := f.addClub(t, "Rival Club", models.RoleClub)
	svc := f.raceAssignment()

	tests := []struct {
		name                            string
		raceID, eventID, teamID, clubID int
		want                            error
	}{
		{"unknown club", rs.race.ID, rs.event.ID, rs.team.ID, 9999, ErrClubNotFound},
		{"unknown event", rs.race.ID, 9999, rs.team.ID, rs.club.ID, ErrEventNotFound},
		{"race of another event", rs.race.ID, otherEvent.ID, rs.team.ID, rs.club.ID, ErrRaceNotFound},
		{"unknown team", rs.race.ID, rs.event.ID, 9999, rs.club.ID, ErrTeamNotFound},
		{"team of another club", rs.race.ID, rs.event.ID, rs.team.ID, rival.ID, ErrTeamNotFound},
		{"category mismatch", womenRace.ID, rs.event.ID, rs.team.ID, rs.club.ID, ErrTeamTypeMismatch},
		{"team below minimum", rs.race.ID, rs.event.ID, small.ID, rs.club.ID, ErrTeamTooSmall},
		{"team without players", rs.race.ID, rs.event.ID, empty.ID, rs.club.ID, ErrTeamHasNoPlayers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AssignTeam(ctx, tt.raceID, tt.eventID, tt.teamID, tt.clubID)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if n, _ := f.raceTeams.CountByRace(ctx, rs.race.ID); n != 0 {
		t.Errorf("rejected assignments left %d rows", n)
	}
	if len(f.publisher.types()) != 0 {
		t.Errorf("rejected assignments published %v", f.publisher.types())
	}
}

func TestAssignTeam_PlayerStillRacingWithPreviousTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rs := newRaceSetup(t, f, models.RaceRoadMix, 6, 6)
	svc := f.raceAssignment()

	if _, err := svc.AssignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID); err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}

	// Игрок переходит в другую команду, его запись участия в гонке остаётся.
	moved := rs.roster[0]
	ta := f.teamAssignment()
	if _, err := ta.UnassignPlayer(ctx, moved.CNIC, rs.club.ID); err != nil {
		t.Fatalf("UnassignPlayer: %v", err)
	}
	second, _ := f.addTeamWithPlayers(t, rs.club.ID, "Eagles", models.TeamTypeMix, 50, 5)
	if _, err := ta.AssignPlayersToTeam(ctx, []string{moved.CNIC}, "Eagles", rs.club.ID); err != nil {
		t.Fatalf("AssignPlayersToTeam: %v", err)
	}

	_, err := svc.AssignTeam(ctx, rs.race.ID, rs.event.ID, second.ID, rs.club.ID)
	if !errors.Is(err, ErrPlayersAlreadyInRace) {
		t.Fatalf("got %v, want ErrPlayersAlreadyInRace", err)
	}
	if errors.Is(err, ErrTeamAlreadyInRace) {
		t.Errorf("the new team was never entered, got %v", err)
	}
	var inRace *PlayersInRaceError
	if !errors.As(err, &inRace) || len(inRace.Entries) != 1 {
		t.Fatalf("expected one conflicting player, got %v", err)
	}
	if inRace.Entries[0].PlayerID != moved.ID || inRace.Entries[0].TeamID != rs.team.ID {
		t.Errorf("conflict = %+v, want player %d of team %d", inRace.Entries[0], moved.ID, rs.team.ID)
	}
	if _, err := f.raceTeams.Get(ctx, nil, second.ID, rs.race.ID, rs.event.ID); err == nil {
		t.Error("race assignment created despite the conflict")
	}
}

func TestUnassignTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rs := newRaceSetup(t, f, models.RaceTTTMix, 4, 6)
	svc := f.raceAssignment()

	if err := svc.UnassignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID); !errors.Is(err, ErrRaceTeamNotAssigned) {
		t.Fatalf("unassign before assign: got %v", err)
	}
	if _, err := svc.AssignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID); err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}

	rival := f.addClub(t, "Rival", models.RoleClub)
	if err := svc.UnassignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rival.ID); !errors.Is(err, ErrRaceTeamNotAssigned) {
		t.Errorf("unassign by another club: got %v", err)
	}

	if err := svc.UnassignTeam(ctx, rs.race.ID, rs.event.ID, rs.team.ID, rs.club.ID); err != nil {
		t.Fatalf("UnassignTeam: %v", err)
	}
	if recs, _ := f.participation.ListByRace(ctx, rs.event.ID, rs.race.ID); len(recs) != 0 {
		t.Errorf("participation records left: %d", len(recs))
	}
	if got := f.publisher.types(); !reflect.DeepEqual(got, []string{MsgTeamAssigned, MsgTeamUnassigned}) {
		t.Errorf("published %v", got)
	}
}

func TestGetUnassignedTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.addClub(t, "Club", models.RoleClub)
	event := f.addEvent(t, "Event", false)
	mixRace := f.addRace(t, event.ID, "Road", models.RaceRoadMix, 6)
	womenRace := f.addRace(t, event.ID, "ITT Women", models.RaceITTWomen, 3)

	ready, _ := f.addTeamWithPlayers(t, club.ID, "Ready", models.TeamTypeMix, 1, 6)
	assigned, _ := f.addTeamWithPlayers(t, club.ID, "Assigned", models.TeamTypeMix, 10, 7)
	f.addTeamWithPlayers(t, club.ID, "Small", models.TeamTypeMix, 20, 5)
	women, _ := f.addTeamWithPlayers(t, club.ID, "Queens", models.TeamTypeWomenOnly, 30, 4)
	f.addTeamWithPlayers(t, club.ID, "Trio", models.TeamTypeWomenOnly, 40, 3)

	svc := f.raceAssignment()
	if _, err := svc.AssignTeam(ctx, mixRace.ID, event.ID, assigned.ID, club.ID); err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}

	teamIDs := func(teams []*models.Team) []int {
		ids := make([]int, 0, len(teams))
		for _, team := range teams {
			ids = append(ids, team.ID)
		}
		return ids
	}

	got, err := svc.GetUnassignedTeams(ctx, event.ID, mixRace.ID, club.ID)
	if err != nil {
		t.Fatalf("GetUnassignedTeams mix: %v", err)
	}
	if want := []int{ready.ID}; !reflect.DeepEqual(teamIDs(got), want) {
		t.Errorf("mix race candidates = %v, want %v", teamIDs(got), want)
	}

	got, err = svc.GetUnassignedTeams(ctx, event.ID, womenRace.ID, club.ID)
	if err != nil {
		t.Fatalf("GetUnassignedTeams women: %v", err)
	}
	if want := []int{women.ID}; !reflect.DeepEqual(teamIDs(got), want) {
		t.Errorf("women race candidates = %v, want %v", teamIDs(got), want)
	}
}

func TestGetMissingRacesForTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.addClub(t, "Club", models.RoleClub)
	event := f.addEvent(t, "Event", false)
	road := f.addRace(t, event.ID, "Road", models.RaceRoadMix, 6)
	itt := f.addRace(t, event.ID, "ITT", models.RaceITTMix, 6)
	ttt := f.addRace(t, event.ID, "TTT", models.RaceTTTMix, 4)
	f.addRace(t, event.ID, "Women Road", models.RaceRoadWomen, 4)
	team, _ := f.addTeamWithPlayers(t, club.ID, "Falcons", models.TeamTypeMix, 1, 6)

	svc := f.raceAssignment()
	if _, err := svc.AssignTeam(ctx, itt.ID, event.ID, team.ID, club.ID); err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}

	missing, err := svc.GetMissingRacesForTeam(ctx, team.ID, event.ID, club.ID)
	if err != nil {
		t.Fatalf("GetMissingRacesForTeam: %v", err)
	}
	got := make([]int, 0, len(missing))
	for _, r := range missing {
		got = append(got, r.ID)
	}
	if want := []int{road.ID, ttt.ID}; !reflect.DeepEqual(got, want) {
		t.Errorf("missing races = %v, want %v", got, want)
	}

	if _, err := svc.GetMissingRacesForTeam(ctx, 9999, event.ID, club.ID); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("unknown team: got %v", err)
	}

	rival := f.addClub(t, "Rival", models.RoleClub)
	if _, err := svc.GetMissingRacesForTeam(ctx, team.ID, event.ID, rival.ID); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("team of another club: got %v", err)
	}
}
