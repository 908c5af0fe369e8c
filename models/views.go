package models

// PlayerRaceView is a team member annotated with race participation data.
type PlayerRaceView struct {
	ID        int                  `json:"id"`
	Name      string               `json:"name"`
	CNIC      string               `json:"cnic"`
	Gender    Gender               `json:"gender"`
	Age       int                  `json:"age"`
	Status    *ParticipationStatus `json:"status,omitempty"`
	BibNumber *int                 `json:"bib_number,omitempty"`
	Group     *string              `json:"group,omitempty"`
}

type TeamRaceView struct {
	ID       int              `json:"id"`
	Name     string           `json:"team_name"`
	Type     TeamType         `json:"team_type"`
	ClubID   int              `json:"club_id"`
	ClubName string           `json:"club_name,omitempty"`
	Players  []PlayerRaceView `json:"players"`
}

type RaceView struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Type           RaceType       `json:"type"`
	Distance       float64        `json:"distance"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	ActivePlayerNo int            `json:"active_player_no"`
	Teams          []TeamRaceView `json:"teams"`
}

type EventRaceData struct {
	EventID   int        `json:"event_id"`
	EventName string     `json:"event_name"`
	Year      int        `json:"year"`
	Location  string     `json:"location"`
	Races     []RaceView `json:"races"`
}

// PlayerAssignmentCheck is returned before deleting a player.
type PlayerAssignmentCheck struct {
	Assigned bool    `json:"assigned"`
	Message  string  `json:"message"`
	Name     string  `json:"name,omitempty"`
	CNIC     string  `json:"cnic,omitempty"`
	TeamName *string `json:"team_name,omitempty"`
}
