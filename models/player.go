package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// AssignmentStatus mirrors whether Player.TeamID is set.
type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentUnassigned AssignmentStatus = "unassigned"
)

func (s AssignmentStatus) Valid() bool {
	return s == AssignmentAssigned || s == AssignmentUnassigned
}

// AssignmentStatusFor returns the status matching a team reference.
func AssignmentStatusFor(teamID *int) AssignmentStatus {
	if teamID != nil {
		return AssignmentAssigned
	}
	return AssignmentUnassigned
}

// Player представляет спортсмена клуба. CNIC уникален во всей системе.
type Player struct {
	ID               int              `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	CNIC             string           `json:"cnic" db:"cnic"`
	DateOfBirth      time.Time        `json:"date_of_birth" db:"date_of_birth"`
	Age              int              `json:"age" db:"age"`
	Gender           Gender           `json:"gender" db:"gender"`
	Weight           float64          `json:"weight" db:"weight"`
	FitnessCategory  string           `json:"fitness_category" db:"fitness_category"`
	Contact          string           `json:"contact" db:"contact"`
	EmergencyContact string           `json:"emergency_contact" db:"emergency_contact"`
	Disability       *string          `json:"disability,omitempty" db:"disability"`
	ClubID           int              `json:"club_id" db:"club_id"`
	TeamID           *int             `json:"team_id,omitempty" db:"team_id"`
	AssignedTeam     AssignmentStatus `json:"assigned_team" db:"assigned_team"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`

	TeamName *string `json:"team_name,omitempty" db:"-"`
}

// SetTeam is the only way the service layer changes a player's team, so
// TeamID and AssignedTeam never drift apart.
func (p *Player) SetTeam(teamID *int) {
	p.TeamID = teamID
	p.AssignedTeam = AssignmentStatusFor(teamID)
}

// AgeAt returns full years between dob and now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// PlayerFilter используется в выборке игроков клуба.
type PlayerFilter struct {
	ClubID       int
	TeamID       *int
	AssignedTeam *AssignmentStatus
	Gender       *Gender
}
