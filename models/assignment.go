package models

import "time"

// RaceTeamAssignment связывает команду с гонкой события. Уникальна по (team, race, event).
type RaceTeamAssignment struct {
	ID        int       `json:"id" db:"id"`
	RaceID    int       `json:"race_id" db:"race_id"`
	EventID   int       `json:"event_id" db:"event_id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	ClubID    int       `json:"club_id" db:"club_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ParticipationStatus string

const (
	ParticipationActive     ParticipationStatus = "active"
	ParticipationSubstitute ParticipationStatus = "substitute"
)

func (s ParticipationStatus) Valid() bool {
	return s == ParticipationActive || s == ParticipationSubstitute
}

// RacePlayerAssignment is a participation record, unique per (player, race, event).
// Group is only ever set while Status is active.
type RacePlayerAssignment struct {
	ID        int                 `json:"id" db:"id"`
	PlayerID  int                 `json:"player_id" db:"player_id"`
	RaceID    int                 `json:"race_id" db:"race_id"`
	EventID   int                 `json:"event_id" db:"event_id"`
	TeamID    int                 `json:"team_id" db:"team_id"`
	ClubID    int                 `json:"club_id" db:"club_id"`
	Status    ParticipationStatus `json:"status" db:"status"`
	Group     *string             `json:"group,omitempty" db:"group_name"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`
}

func (a *RacePlayerAssignment) HasGroup() bool {
	return a.Group != nil && *a.Group != ""
}

// ParticipationRef addresses a single participation record.
type ParticipationRef struct {
	RaceID   int `json:"race_id"`
	EventID  int `json:"event_id"`
	TeamID   int `json:"team_id"`
	PlayerID int `json:"player_id"`
}

// SeedParticipation splits a roster into active and substitute records by roster order.
func SeedParticipation(a *RaceTeamAssignment, roster []int, activePlayerNo int) []*RacePlayerAssignment {
	records := make([]*RacePlayerAssignment, 0, len(roster))
	for i, playerID := range roster {
		status := ParticipationSubstitute
		if i < activePlayerNo {
			status = ParticipationActive
		}
		records = append(records, &RacePlayerAssignment{
			PlayerID: playerID,
			RaceID:   a.RaceID,
			EventID:  a.EventID,
			TeamID:   a.TeamID,
			ClubID:   a.ClubID,
			Status:   status,
		})
	}
	return records
}
