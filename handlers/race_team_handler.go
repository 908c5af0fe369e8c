package handlers

import (
	"net/http"

	"github.com/Dosada05/raceday/services"
)

type RaceTeamHandler struct {
	raceAssignment services.RaceAssignmentService
	participation  services.ParticipationService
}

func NewRaceTeamHandler(ras services.RaceAssignmentService, ps services.ParticipationService) *RaceTeamHandler {
	return &RaceTeamHandler{
		raceAssignment: ras,
		participation:  ps,
	}
}

type raceTeamRequest struct {
	RaceID  int `json:"race_id"`
	EventID int `json:"event_id"`
	TeamID  int `json:"team_id"`
}

func (req raceTeamRequest) validate() error {
	return requirePositive(map[string]int{
		"race_id":  req.RaceID,
		"event_id": req.EventID,
		"team_id":  req.TeamID,
	}, "race_id", "event_id", "team_id")
}

// Assign
// @Summary Enter a team into a race
// @Description The first active_player_no members in roster order become active, the rest substitutes.
// @Tags race-teams
// @Accept json
// @Produce json
// @Param body body raceTeamRequest true "Race, event and team"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /race-teams/assign [post]
func (h *RaceTeamHandler) Assign(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var req raceTeamRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.raceAssignment.AssignTeam(r.Context(), req.RaceID, req.EventID, req.TeamID, clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, result, "Team assigned to race successfully.")
}

// Unassign
// @Summary Withdraw a team from a race
// @Tags race-teams
// @Accept json
// @Produce json
// @Param body body raceTeamRequest true "Race, event and team"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /race-teams/unassign [post]
func (h *RaceTeamHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var req raceTeamRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.raceAssignment.UnassignTeam(r.Context(), req.RaceID, req.EventID, req.TeamID, clubID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, req, "Team removed from race successfully.")
}

// Unassigned
// @Summary Teams of the current club that can still enter the race
// @Tags race-teams
// @Produce json
// @Param event_id query int true "Event ID"
// @Param race_id query int true "Race ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /race-teams/unassigned [get]
func (h *RaceTeamHandler) Unassigned(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	ids, err := queryIDs(r, "event_id", "race_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.raceAssignment.GetUnassignedTeams(r.Context(), ids[0], ids[1], clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, teams, "Unassigned teams retrieved successfully.")
}

// Assigned
// @Summary Teams of the current club entered in the race, with participation
// @Tags race-teams
// @Produce json
// @Param event_id query int true "Event ID"
// @Param race_id query int true "Race ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /race-teams/assigned [get]
func (h *RaceTeamHandler) Assigned(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	ids, err := queryIDs(r, "event_id", "race_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.raceAssignment.GetAssignedTeams(r.Context(), ids[0], ids[1], clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, teams, "Assigned teams retrieved successfully.")
}

// MissingRaces
// @Summary Races of the event the team is eligible for but not yet entered in
// @Tags race-teams
// @Produce json
// @Param team_id query int true "Team ID"
// @Param event_id query int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /race-teams/missing-races [get]
func (h *RaceTeamHandler) MissingRaces(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	ids, err := queryIDs(r, "team_id", "event_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	races, err := h.raceAssignment.GetMissingRacesForTeam(r.Context(), ids[0], ids[1], clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, races, "Missing races retrieved successfully.")
}

// TeamPlayers
// @Summary A team's roster with status, group and bib for one race
// @Tags race-teams
// @Produce json
// @Param team_id query int true "Team ID"
// @Param event_id query int true "Event ID"
// @Param race_id query int true "Race ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /race-teams/players [get]
func (h *RaceTeamHandler) TeamPlayers(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	ids, err := queryIDs(r, "team_id", "event_id", "race_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.participation.GetTeamPlayersWithStatus(r.Context(), ids[0], ids[1], ids[2], clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, view, "Team players retrieved successfully.")
}
