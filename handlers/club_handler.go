package handlers

import (
	"net/http"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/services"
)

type ClubHandler struct {
	clubService services.ClubService
}

func NewClubHandler(cs services.ClubService) *ClubHandler {
	return &ClubHandler{clubService: cs}
}

// Register
// @Summary Register a club
// @Tags clubs
// @Accept json
// @Produce json
// @Param body body services.RegisterClubInput true "Club registration"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "club name taken"
// @Router /clubs/register [post]
func (h *ClubHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterClubInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	club, err := h.clubService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, club, "Club registered successfully.")
}

// Login
// @Summary Log in as a club
// @Tags clubs
// @Accept json
// @Produce json
// @Param body body models.Credentials true "club_name and password"
// @Success 200 {object} map[string]interface{} "club and token"
// @Failure 401 {object} map[string]string
// @Router /clubs/login [post]
func (h *ClubHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	club, token, err := h.clubService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, jsonResponse{"club": club, "token": token}, "Login successful.")
}

// Profile
// @Summary Current club profile
// @Tags clubs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /clubs/me [get]
func (h *ClubHandler) Profile(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	club, err := h.clubService.GetProfile(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, club, "Club profile retrieved successfully.")
}
