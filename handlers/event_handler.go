package handlers

import (
	"net/http"

	"github.com/Dosada05/raceday/middleware"
	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/services"
)

type EventHandler struct {
	eventService services.EventService
	raceService  services.RaceService
	raceData     services.RaceDataService
}

func NewEventHandler(es services.EventService, rs services.RaceService, rds services.RaceDataService) *EventHandler {
	return &EventHandler{
		eventService: es,
		raceService:  rs,
		raceData:     rds,
	}
}

// Create
// @Summary Create an event (admin)
// @Tags events
// @Accept json
// @Produce json
// @Param body body services.CreateEventInput true "Event"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetClubIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "Club authentication failed.")
		return
	}
	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), adminID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, event, "Event created successfully.")
}

// List
// @Summary List events
// @Tags events
// @Produce json
// @Param status query string false "upcoming or past"
// @Success 200 {object} map[string]interface{}
// @Router /events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, events, "Events retrieved successfully.")
}

// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID} [get]
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, event, "Event retrieved successfully.")
}

// @Summary Update an event (admin)
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body services.UpdateEventInput true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /events/{eventID} [put]
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.UpdateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	event, err := h.eventService.UpdateEvent(r.Context(), eventID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, event, "Event updated successfully.")
}

// @Summary Delete an event without races (admin)
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /events/{eventID} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.eventService.DeleteEvent(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, jsonResponse{"event_id": eventID}, "Event deleted successfully.")
}

// @Summary Event visibility flags
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/config [get]
func (h *EventHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	cfg, err := h.eventService.GetEventConfig(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg, "Event config retrieved successfully.")
}

// @Summary Update event visibility flags (admin)
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body models.EventConfigUpdate true "Flags to change"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /events/{eventID}/config [patch]
func (h *EventHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var update models.EventConfigUpdate
	if err := readJSON(w, r, &update); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	cfg, err := h.eventService.UpdateEventConfig(r.Context(), eventID, update)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg, "Event config updated successfully.")
}

// @Summary All events with their races
// @Tags events
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /events-races [get]
func (h *EventHandler) ListWithRaces(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEventsWithRaces(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, events, "All events with races retrieved successfully.")
}

// @Summary Races of an event
// @Tags races
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/races [get]
func (h *EventHandler) ListRaces(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	races, err := h.raceService.ListRacesByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, races, "Races retrieved successfully.")
}

// RaceData
// @Summary Every race of an event with its teams, players, status, groups and bibs
// @Tags race-data
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/race-data [get]
func (h *EventHandler) RaceData(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	data, err := h.raceData.GetFullEventRaceData(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, data, "Event race data retrieved successfully.")
}

// PublishedRaceData
// @Summary Race data of an event, only when the event publishes teams
// @Tags race-data
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{} "data is null while teams are not published"
// @Router /events/{eventID}/published [get]
func (h *EventHandler) PublishedRaceData(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	data, err := h.raceData.GetPublishedRaceDataByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if data == nil {
		writeData(w, r, http.StatusOK, nil, "Teams are not published for this event yet.")
		return
	}
	writeData(w, r, http.StatusOK, data, "Published race data retrieved successfully.")
}

// GetRaceTeams
// @Summary Teams and players entered in one race of an event
// @Tags race-data
// @Produce json
// @Param eventID path int true "Event ID"
// @Param raceID path int true "Race ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/races/{raceID}/teams [get]
func (h *EventHandler) GetRaceTeams(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teams, err := h.raceData.GetTeamsAndPlayersForRace(r.Context(), eventID, raceID, nil)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, teams, "Race teams retrieved successfully.")
}
