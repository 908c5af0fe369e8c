package handlers

import (
	"net/http"

	"github.com/Dosada05/raceday/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: s}
}

// Stats
// @Summary Admin dashboard totals
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentClubID(w, r)
	if !ok {
		return
	}
	dash, err := h.dashboardService.GetAdminDashboard(r.Context(), adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dash, "Dashboard data retrieved successfully.")
}
