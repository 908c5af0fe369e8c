package models

import "time"

type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventPast     EventStatus = "past"
)

func (s EventStatus) Valid() bool {
	return s == EventUpcoming || s == EventPast
}

// Event представляет соревнование, включающее несколько гонок.
type Event struct {
	ID                        int         `json:"id" db:"id"`
	Name                      string      `json:"event_name" db:"event_name"`
	Year                      int         `json:"year" db:"year"`
	Location                  string      `json:"location" db:"location"`
	Image                     *string     `json:"image,omitempty" db:"image"`
	Status                    EventStatus `json:"status" db:"status"`
	StartDate                 *time.Time  `json:"start_date,omitempty" db:"start_date"`
	EndDate                   *time.Time  `json:"end_date,omitempty" db:"end_date"`
	RegistrationEnabled       bool        `json:"registration_enabled" db:"registration_enabled"`
	PublishTeams              bool        `json:"publish_teams" db:"publish_teams"`
	PublishLeaderboardPortal  bool        `json:"publish_leaderboard_portal" db:"publish_leaderboard_portal"`
	PublishLeaderboardWebsite bool        `json:"publish_leaderboard_website" db:"publish_leaderboard_website"`
	CreatedBy                 int         `json:"created_by" db:"created_by"`
	CreatedAt                 time.Time   `json:"created_at" db:"created_at"`

	Races []Race `json:"races,omitempty" db:"-"`
}

// EventConfigUpdate carries a partial update of the event flags; nil fields are left untouched.
type EventConfigUpdate struct {
	RegistrationEnabled       *bool `json:"registration_enabled"`
	PublishTeams              *bool `json:"publish_teams"`
	PublishLeaderboardPortal  *bool `json:"publish_leaderboard_portal"`
	PublishLeaderboardWebsite *bool `json:"publish_leaderboard_website"`
}

func (u EventConfigUpdate) Apply(e *Event) {
	if u.RegistrationEnabled != nil {
		e.RegistrationEnabled = *u.RegistrationEnabled
	}
	if u.PublishTeams != nil {
		e.PublishTeams = *u.PublishTeams
	}
	if u.PublishLeaderboardPortal != nil {
		e.PublishLeaderboardPortal = *u.PublishLeaderboardPortal
	}
	if u.PublishLeaderboardWebsite != nil {
		e.PublishLeaderboardWebsite = *u.PublishLeaderboardWebsite
	}
}

func (u EventConfigUpdate) Empty() bool {
	return u.RegistrationEnabled == nil && u.PublishTeams == nil &&
		u.PublishLeaderboardPortal == nil && u.PublishLeaderboardWebsite == nil
}
