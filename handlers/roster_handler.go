package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/raceday/services"
)

type RosterHandler struct {
	assignmentService services.TeamAssignmentService
}

func NewRosterHandler(as services.TeamAssignmentService) *RosterHandler {
	return &RosterHandler{assignmentService: as}
}

type assignPlayersRequest struct {
	CNICs    []string `json:"cnics"`
	TeamName string   `json:"team_name"`
}

type unassignPlayerRequest struct {
	CNIC string `json:"cnic"`
}

// Assign
// @Summary Assign players to a team by CNIC
// @Description Missing, already assigned and gender-ineligible CNICs are reported without failing the batch.
// @Tags roster
// @Accept json
// @Produce json
// @Param body body assignPlayersRequest true "CNICs and team name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "capacity exceeded"
// @Security BearerAuth
// @Router /roster/assign [post]
func (h *RosterHandler) Assign(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var req assignPlayersRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(req.CNICs) == 0 || strings.TrimSpace(req.TeamName) == "" {
		badRequestResponse(w, r, errors.New("cnics and team_name are required"))
		return
	}

	result, err := h.assignmentService.AssignPlayersToTeam(r.Context(), req.CNICs, req.TeamName, clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, result, "Players assignment processed.")
}

// Unassign
// @Summary Remove a player from their team
// @Tags roster
// @Accept json
// @Produce json
// @Param body body unassignPlayerRequest true "CNIC"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "already unassigned"
// @Security BearerAuth
// @Router /roster/unassign [post]
func (h *RosterHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var req unassignPlayerRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(req.CNIC) == "" {
		badRequestResponse(w, r, errors.New("cnic is required"))
		return
	}

	player, err := h.assignmentService.UnassignPlayer(r.Context(), req.CNIC, clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, player, "Player unassigned successfully.")
}
