package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/raceday/services"
	"github.com/go-chi/chi/v5"
)

type PlayerHandler struct {
	playerService     services.PlayerService
	assignmentService services.TeamAssignmentService
}

func NewPlayerHandler(ps services.PlayerService, as services.TeamAssignmentService) *PlayerHandler {
	return &PlayerHandler{
		playerService:     ps,
		assignmentService: as,
	}
}

func cnicFromURL(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "cnic"))
}

// Create
// @Summary Register a player in the current club
// @Tags players
// @Accept json
// @Produce json
// @Param body body services.CreatePlayerInput true "Player"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "CNIC already registered"
// @Security BearerAuth
// @Router /players [post]
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.CreatePlayer(r.Context(), clubID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, player, "Player created successfully.")
}

// @Summary List players of the current club
// @Tags players
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /players [get]
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	players, err := h.playerService.ListPlayers(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, players, "Players retrieved successfully.")
}

// @Summary Get a player by CNIC
// @Tags players
// @Produce json
// @Param cnic path string true "CNIC"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /players/{cnic} [get]
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	player, err := h.playerService.GetPlayerByCNIC(r.Context(), clubID, cnicFromURL(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, player, "Player retrieved successfully.")
}

// @Summary Update player details
// @Tags players
// @Accept json
// @Produce json
// @Param cnic path string true "CNIC"
// @Param body body services.UpdatePlayerInput true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /players/{cnic} [put]
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var input services.UpdatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.UpdatePlayer(r.Context(), clubID, cnicFromURL(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, player, "Player updated successfully.")
}

// Filter
// @Summary Filter players by team, assignment status or eligibility for a team
// @Tags players
// @Produce json
// @Param team_name query string false "Only members of this team"
// @Param assigned_team query string false "assigned or unassigned"
// @Param team_type_key query string false "Team whose gender rule applies to unassigned players"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /players/filter [get]
func (h *PlayerHandler) Filter(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	players, err := h.assignmentService.GetPlayersByFilter(r.Context(), services.PlayersFilterInput{
		ClubID:         clubID,
		TeamName:       q.Get("team_name"),
		AssignedStatus: q.Get("assigned_team"),
		TeamTypeKey:    q.Get("team_type_key"),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, players, "Players retrieved successfully.")
}

// @Summary Check whether a player can be deleted
// @Tags players
// @Produce json
// @Param cnic path string true "CNIC"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /players/{cnic}/assignment [get]
func (h *PlayerHandler) CheckAssignment(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	check, err := h.assignmentService.CheckPlayerAssignment(r.Context(), cnicFromURL(r), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, check, check.Message)
}

// @Summary Delete an unassigned player
// @Tags players
// @Produce json
// @Param cnic path string true "CNIC"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "player still in a team"
// @Security BearerAuth
// @Router /players/{cnic} [delete]
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	cnic := cnicFromURL(r)
	if err := h.assignmentService.DeletePlayer(r.Context(), cnic, clubID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, jsonResponse{"cnic": cnic}, "Player deleted successfully.")
}
