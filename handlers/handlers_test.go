package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/raceday/middleware"
	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/services"
	"github.com/go-chi/chi/v5"
)

type stubAssignment struct {
	services.TeamAssignmentService
	assign func(cnics []string, teamName string, clubID int) (*services.AssignPlayersResult, error)
}

func (s *stubAssignment) AssignPlayersToTeam(_ context.Context, cnics []string, teamName string, clubID int) (*services.AssignPlayersResult, error) {
	return s.assign(cnics, teamName, clubID)
}

type stubParticipation struct {
	services.ParticipationService
	calls     int
	lastRef   models.ParticipationRef
	lastGroup string
	err       error
}

func (s *stubParticipation) UpdatePlayerStatus(_ context.Context, ref models.ParticipationRef, clubID int, status models.ParticipationStatus) (*models.RacePlayerAssignment, error) {
	s.calls++
	s.lastRef = ref
	if s.err != nil {
		return nil, s.err
	}
	return &models.RacePlayerAssignment{PlayerID: ref.PlayerID, RaceID: ref.RaceID, ClubID: clubID, Status: status}, nil
}

func (s *stubParticipation) UpdatePlayerGroup(_ context.Context, ref models.ParticipationRef, clubID int, group string) (*models.RacePlayerAssignment, error) {
	s.calls++
	s.lastRef = ref
	s.lastGroup = group
	return &models.RacePlayerAssignment{PlayerID: ref.PlayerID, ClubID: clubID, Status: models.ParticipationActive}, nil
}

type stubRaceData struct {
	services.RaceDataService
	published *models.EventRaceData
}

func (s *stubRaceData) GetPublishedRaceDataByEvent(_ context.Context, eventID int) (*models.EventRaceData, error) {
	if eventID == 404 {
		return nil, services.ErrEventNotFound
	}
	return s.published, nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func asClub(r *http.Request, clubID int) *http.Request {
	ctx := middleware.WithPrincipal(r.Context(), models.Principal{ClubID: clubID, Role: models.RoleClub})
	return r.WithContext(ctx)
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrPlayerNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", services.ErrTeamNotFound), http.StatusNotFound},
		{"cnic conflict", services.ErrPlayerCNICConflict, http.StatusConflict},
		{"capacity", &services.CapacityError{TeamType: models.TeamTypeMix, Available: 1}, http.StatusBadRequest},
		{"active limit", services.ErrActiveLimitReached, http.StatusBadRequest},
		{"limit below active players", fmt.Errorf("%w: team 3 has 6 active players", services.ErrActiveAboveLimit), http.StatusBadRequest},
		{"players already racing", &services.PlayersInRaceError{}, http.StatusBadRequest},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServerErrorHidesDetailsOutsideDevelopment(t *testing.T) {
	ConfigureErrors(nil, false)
	rec := httptest.NewRecorder()
	serverErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: relation does not exist"))
	if env := decodeEnvelope(t, rec); strings.Contains(env.Error, "pq:") {
		t.Errorf("internal error leaked: %q", env.Error)
	}

	ConfigureErrors(nil, true)
	defer ConfigureErrors(nil, false)
	rec = httptest.NewRecorder()
	serverErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: relation does not exist"))
	if env := decodeEnvelope(t, rec); env.Error != "pq: relation does not exist" {
		t.Errorf("development error = %q", env.Error)
	}
}

func TestQueryIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?event_id=3&race_id=7", nil)
	ids, err := queryIDs(req, "event_id", "race_id")
	if err != nil || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("queryIDs = %v, %v", ids, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?event_id=3", nil)
	if _, err := queryIDs(req, "event_id", "race_id", "team_id"); err == nil || err.Error() != "race_id, team_id are required" {
		t.Errorf("missing ids error = %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?event_id=-1", nil)
	if _, err := queryIDs(req, "event_id"); err == nil {
		t.Error("expected error for negative id")
	}
}

func TestRosterAssign(t *testing.T) {
	var gotClub int
	h := NewRosterHandler(&stubAssignment{
		assign: func(cnics []string, teamName string, clubID int) (*services.AssignPlayersResult, error) {
			gotClub = clubID
			if teamName == "Full" {
				return nil, &services.CapacityError{TeamType: models.TeamTypeMix, Available: 0}
			}
			return &services.AssignPlayersResult{AssignedPlayers: 1, MissingPlayers: cnics[1:]}, nil
		},
	})

	body := `{"cnics":["3520212345671","0000000000000"],"team_name":"Falcons"}`
	rec := httptest.NewRecorder()
	h.Assign(rec, asClub(httptest.NewRequest(http.MethodPost, "/roster/assign", strings.NewReader(body)), 9))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotClub != 9 {
		t.Errorf("club id = %d, want 9", gotClub)
	}
	var result services.AssignPlayersResult
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &result); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if result.AssignedPlayers != 1 || len(result.MissingPlayers) != 1 {
		t.Errorf("result = %+v", result)
	}

	rec = httptest.NewRecorder()
	h.Assign(rec, asClub(httptest.NewRequest(http.MethodPost, "/roster/assign", strings.NewReader(`{"cnics":["1"],"team_name":"Full"}`)), 9))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("capacity status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Assign(rec, asClub(httptest.NewRequest(http.MethodPost, "/roster/assign", strings.NewReader(`{"cnics":[],"team_name":"Falcons"}`)), 9))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty cnics status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Assign(rec, httptest.NewRequest(http.MethodPost, "/roster/assign", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestParticipationUpdateStatus(t *testing.T) {
	stub := &stubParticipation{}
	h := NewParticipationHandler(stub)

	rec := httptest.NewRecorder()
	body := `{"race_id":1,"event_id":2,"team_id":3,"player_id":4,"status":"active"}`
	h.UpdateStatus(rec, asClub(httptest.NewRequest(http.MethodPut, "/participation/status", strings.NewReader(body)), 5))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	want := models.ParticipationRef{RaceID: 1, EventID: 2, TeamID: 3, PlayerID: 4}
	if stub.lastRef != want {
		t.Errorf("ref = %+v, want %+v", stub.lastRef, want)
	}

	rec = httptest.NewRecorder()
	body = `{"race_id":1,"event_id":2,"status":"active"}`
	h.UpdateStatus(rec, asClub(httptest.NewRequest(http.MethodPut, "/participation/status", strings.NewReader(body)), 5))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing ids status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != "team_id, player_id are required" {
		t.Errorf("error = %q", env.Error)
	}
	if stub.calls != 1 {
		t.Errorf("service called %d times, want 1", stub.calls)
	}

	stub.err = services.ErrActiveLimitReached
	rec = httptest.NewRecorder()
	body = `{"race_id":1,"event_id":2,"team_id":3,"player_id":4,"status":"active"}`
	h.UpdateStatus(rec, asClub(httptest.NewRequest(http.MethodPut, "/participation/status", strings.NewReader(body)), 5))
	if env := decodeEnvelope(t, rec); rec.Code != http.StatusBadRequest || env.Error != services.ErrActiveLimitReached.Error() {
		t.Errorf("limit: status %d error %q", rec.Code, env.Error)
	}
}

func TestParticipationUpdateGroup(t *testing.T) {
	stub := &stubParticipation{}
	h := NewParticipationHandler(stub)

	rec := httptest.NewRecorder()
	body := `{"race_id":1,"event_id":2,"team_id":3,"player_id":4}`
	h.UpdateGroup(rec, asClub(httptest.NewRequest(http.MethodPut, "/participation/group", strings.NewReader(body)), 5))
	if rec.Code != http.StatusBadRequest || stub.calls != 0 {
		t.Fatalf("missing group: status %d calls %d", rec.Code, stub.calls)
	}

	rec = httptest.NewRecorder()
	body = `{"race_id":1,"event_id":2,"team_id":3,"player_id":4,"group":""}`
	h.UpdateGroup(rec, asClub(httptest.NewRequest(http.MethodPut, "/participation/group", strings.NewReader(body)), 5))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear group: status %d", rec.Code)
	}
	if stub.lastGroup != "" {
		t.Errorf("group = %q, want empty", stub.lastGroup)
	}
}

func TestPublishedRaceData(t *testing.T) {
	stub := &stubRaceData{}
	h := NewEventHandler(nil, nil, stub)
	router := chi.NewRouter()
	router.Get("/events/{eventID}/published", h.PublishedRaceData)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/1/published", nil))
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || string(env.Data) != "null" {
		t.Errorf("unpublished: status %d data %s", rec.Code, env.Data)
	}

	stub.published = &models.EventRaceData{EventID: 1, EventName: "Tour"}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/1/published", nil))
	var data models.EventRaceData
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil || data.EventName != "Tour" {
		t.Errorf("published data = %+v, %v", data, err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/404/published", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown event status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/abc/published", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}).Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("down")}).Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d", rec.Code)
	}
}
