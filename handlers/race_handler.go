package handlers

import (
	"net/http"

	"github.com/Dosada05/raceday/middleware"
	"github.com/Dosada05/raceday/services"
)

type RaceHandler struct {
	raceService services.RaceService
}

func NewRaceHandler(rs services.RaceService) *RaceHandler {
	return &RaceHandler{raceService: rs}
}

// Create
// @Summary Create a race in an event (admin)
// @Tags races
// @Accept json
// @Produce json
// @Param body body services.CreateRaceInput true "Race"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "unknown race type"
// @Security BearerAuth
// @Router /races [post]
func (h *RaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetClubIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "Club authentication failed.")
		return
	}
	var input services.CreateRaceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	race, err := h.raceService.CreateRace(r.Context(), adminID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, race, "Race created successfully.")
}

// @Summary Update a race (admin)
// @Tags races
// @Accept json
// @Produce json
// @Param raceID path int true "Race ID"
// @Param body body services.UpdateRaceInput true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /races/{raceID} [put]
func (h *RaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateRaceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	race, err := h.raceService.UpdateRace(r.Context(), raceID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, race, "Race updated successfully.")
}

// @Summary Delete a race without teams (admin)
// @Tags races
// @Produce json
// @Param raceID path int true "Race ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /races/{raceID} [delete]
func (h *RaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.raceService.DeleteRace(r.Context(), raceID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, jsonResponse{"race_id": raceID}, "Race deleted successfully.")
}
