package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/services"
)

type ParticipationHandler struct {
	participation services.ParticipationService
}

func NewParticipationHandler(ps services.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participation: ps}
}

type participationStatusRequest struct {
	models.ParticipationRef
	Status models.ParticipationStatus `json:"status"`
}

type participationGroupRequest struct {
	models.ParticipationRef
	Group *string `json:"group"`
}

func validateRef(ref models.ParticipationRef) error {
	return requirePositive(map[string]int{
		"race_id":   ref.RaceID,
		"event_id":  ref.EventID,
		"team_id":   ref.TeamID,
		"player_id": ref.PlayerID,
	}, "race_id", "event_id", "team_id", "player_id")
}

// UpdateStatus
// @Summary Switch a player between active and substitute in a race
// @Tags participation
// @Accept json
// @Produce json
// @Param body body participationStatusRequest true "Participation and new status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "active limit reached or player has a group"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /participation/status [put]
func (h *ParticipationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var req participationStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := validateRef(req.ParticipationRef); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.Status == "" {
		badRequestResponse(w, r, errors.New("status is required"))
		return
	}

	record, err := h.participation.UpdatePlayerStatus(r.Context(), req.ParticipationRef, clubID, req.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, record, "Player status updated successfully.")
}

// UpdateGroup
// @Summary Set or clear a player's group in a road race
// @Description An empty group clears it. Only active players may hold a group.
// @Tags participation
// @Accept json
// @Produce json
// @Param body body participationGroupRequest true "Participation and group"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /participation/group [put]
func (h *ParticipationHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var req participationGroupRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := validateRef(req.ParticipationRef); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.Group == nil {
		badRequestResponse(w, r, errors.New("group is required"))
		return
	}

	record, err := h.participation.UpdatePlayerGroup(r.Context(), req.ParticipationRef, clubID, *req.Group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, record, "Player group updated successfully.")
}
