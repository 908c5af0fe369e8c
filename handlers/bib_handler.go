package handlers

import (
	"net/http"

	"github.com/Dosada05/raceday/services"
)

type BibHandler struct {
	bibService services.BibService
}

func NewBibHandler(bs services.BibService) *BibHandler {
	return &BibHandler{bibService: bs}
}

type assignBibRequest struct {
	PlayerID  int `json:"player_id"`
	EventID   int `json:"event_id"`
	ClubID    int `json:"club_id"`
	BibNumber int `json:"bib_number"`
}

type updateBibRequest struct {
	PlayerID  int `json:"player_id"`
	EventID   int `json:"event_id"`
	BibNumber int `json:"bib_number"`
}

// Assign
// @Summary Assign a bib number for an event (admin)
// @Tags bibs
// @Accept json
// @Produce json
// @Param body body assignBibRequest true "Bib"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "bib taken or player already has one"
// @Security BearerAuth
// @Router /bibs/assign [post]
func (h *BibHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignBibRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := requirePositive(map[string]int{
		"player_id": req.PlayerID, "event_id": req.EventID, "club_id": req.ClubID,
	}, "player_id", "event_id", "club_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bib, err := h.bibService.AssignBib(r.Context(), req.PlayerID, req.EventID, req.ClubID, req.BibNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, bib, "Bib number assigned successfully.")
}

// Update
// @Summary Change a player's bib number (admin)
// @Tags bibs
// @Accept json
// @Produce json
// @Param body body updateBibRequest true "Bib"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bibs/update [put]
func (h *BibHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBibRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := requirePositive(map[string]int{
		"player_id": req.PlayerID, "event_id": req.EventID,
	}, "player_id", "event_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bib, err := h.bibService.UpdateBib(r.Context(), req.PlayerID, req.EventID, req.BibNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, bib, "Bib number updated successfully.")
}

// Get
// @Summary Bib number of a player in an event
// @Tags bibs
// @Produce json
// @Param playerID path int true "Player ID"
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /bibs/{playerID}/{eventID} [get]
func (h *BibHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bib, err := h.bibService.GetBib(r.Context(), playerID, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, bib, "Bib number retrieved successfully.")
}
