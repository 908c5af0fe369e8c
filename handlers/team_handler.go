package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/services"
)

const maxSlipSize = 10 << 20 // 10MB

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// updateTeamBody identifies the team by team_name; a rename goes in new_team_name.
type updateTeamBody struct {
	TeamName      string                `json:"team_name"`
	NewTeamName   *string               `json:"new_team_name"`
	Description   *string               `json:"description"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
}

type paymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Comment       *string              `json:"comment"`
}

// Create
// @Summary Create a team in the current club
// @Tags teams
// @Accept json
// @Produce json
// @Param body body services.CreateTeamInput true "Team"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "team name taken in this club"
// @Security BearerAuth
// @Router /teams [post]
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), clubID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, team, "Team created successfully.")
}

// List
// @Summary List teams of the current club with their members
// @Tags teams
// @Produce json
// @Param team_type query string false "mix or women-only"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams [get]
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	teams, err := h.teamService.ListTeams(r.Context(), clubID, r.URL.Query().Get("team_type"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, teams, "Teams retrieved successfully.")
}

// Update
// @Summary Rename a team, change its description or payment status
// @Tags teams
// @Accept json
// @Produce json
// @Param body body updateTeamBody true "team_name identifies the team"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams [put]
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	var body updateTeamBody
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(body.TeamName) == "" {
		badRequestResponse(w, r, errors.New("team_name is required"))
		return
	}

	team, err := h.teamService.UpdateTeam(r.Context(), clubID, body.TeamName, services.UpdateTeamInput{
		TeamName:      body.NewTeamName,
		Description:   body.Description,
		PaymentStatus: body.PaymentStatus,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, team, "Team updated successfully.")
}

// Delete
// @Summary Delete a team without members
// @Tags teams
// @Produce json
// @Param team_name query string true "Team name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "team still has players"
// @Security BearerAuth
// @Router /teams [delete]
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("team_name"))
	if name == "" {
		badRequestResponse(w, r, errors.New("team_name is required"))
		return
	}
	if err := h.teamService.DeleteTeam(r.Context(), clubID, name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, jsonResponse{"team_name": name}, "Team deleted successfully.")
}

// UploadPaymentSlip
// @Summary Upload a payment slip for a team
// @Tags teams
// @Accept multipart/form-data
// @Produce json
// @Param team_name formData string true "Team name"
// @Param comment formData string false "Payment comment"
// @Param payment_slip formData file true "Image or PDF"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/payment-slip [post]
func (h *TeamHandler) UploadPaymentSlip(w http.ResponseWriter, r *http.Request) {
	clubID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSlipSize+1<<20)
	if err := r.ParseMultipartForm(maxSlipSize); err != nil {
		badRequestResponse(w, r, errors.New("request must be multipart/form-data no larger than 10MB"))
		return
	}

	file, header, err := r.FormFile("payment_slip")
	if err != nil {
		badRequestResponse(w, r, errors.New("No file uploaded"))
		return
	}
	defer file.Close()

	var comment *string
	if c := r.FormValue("comment"); c != "" {
		comment = &c
	}

	team, err := h.teamService.UploadPaymentSlip(r.Context(), clubID, services.PaymentSlipInput{
		TeamName:    r.FormValue("team_name"),
		File:        file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Comment:     comment,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, team, "Payment slip uploaded successfully.")
}

// SetPaymentStatus
// @Summary Set a team's payment status (admin)
// @Tags teams
// @Accept json
// @Produce json
// @Param teamID path int true "Team ID"
// @Param body body paymentStatusRequest true "Status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/{teamID}/payment [patch]
func (h *TeamHandler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req paymentStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.SetPaymentStatus(r.Context(), teamID, req.PaymentStatus, req.Comment)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, team, "Payment status updated successfully.")
}
