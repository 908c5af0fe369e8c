package models

import (
	"fmt"
	"time"
)

// RaceType is the closed vocabulary of race kinds. The string values are the
// names shown in the portal and stored in the races table.
type RaceType string

const (
	RaceRoadMix   RaceType = "Road Race Mix"
	RaceRoadWomen RaceType = "Road Race Women Only"
	RaceITTMix    RaceType = "Individual Time Trial Mix"
	RaceITTWomen  RaceType = "Individual Time Trial Women Only"
	RaceTTTMix    RaceType = "Team Time Trial Mix"
	RaceTTTWomen  RaceType = "Team Time Trial Women Only"
)

type Discipline string

const (
	DisciplineRoad Discipline = "road"
	DisciplineITT  Discipline = "itt"
	DisciplineTTT  Discipline = "ttt"
)

type raceTypeInfo struct {
	category   TeamType
	discipline Discipline
}

var raceTypes = map[RaceType]raceTypeInfo{
	RaceRoadMix:   {TeamTypeMix, DisciplineRoad},
	RaceRoadWomen: {TeamTypeWomenOnly, DisciplineRoad},
	RaceITTMix:    {TeamTypeMix, DisciplineITT},
	RaceITTWomen:  {TeamTypeWomenOnly, DisciplineITT},
	RaceTTTMix:    {TeamTypeMix, DisciplineTTT},
	RaceTTTWomen:  {TeamTypeWomenOnly, DisciplineTTT},
}

// AllRaceTypes lists the vocabulary in a stable order.
var AllRaceTypes = []RaceType{
	RaceRoadMix, RaceITTMix, RaceTTTMix,
	RaceRoadWomen, RaceITTWomen, RaceTTTWomen,
}

func ParseRaceType(s string) (RaceType, error) {
	rt := RaceType(s)
	if _, ok := raceTypes[rt]; !ok {
		return "", fmt.Errorf("unknown race type %q", s)
	}
	return rt, nil
}

func (rt RaceType) Valid() bool {
	_, ok := raceTypes[rt]
	return ok
}

// Category returns the team type allowed to enter a race of this type.
func (rt RaceType) Category() TeamType {
	return raceTypes[rt].category
}

func (rt RaceType) Discipline() Discipline {
	return raceTypes[rt].discipline
}

// IsRoadRace reports whether groups are meaningful for this race type.
func (rt RaceType) IsRoadRace() bool {
	return rt.Discipline() == DisciplineRoad
}

// RaceTypesFor returns the three canonical race types a team of type t is expected to enter.
func RaceTypesFor(t TeamType) []RaceType {
	out := make([]RaceType, 0, 3)
	for _, rt := range AllRaceTypes {
		if raceTypes[rt].category == t {
			out = append(out, rt)
		}
	}
	return out
}

// Race представляет заезд внутри события.
type Race struct {
	ID             int       `json:"id" db:"id"`
	EventID        int       `json:"event_id" db:"event_id"`
	Name           string    `json:"name" db:"name"`
	Type           RaceType  `json:"type" db:"type"`
	Distance       float64   `json:"distance" db:"distance"`
	Date           time.Time `json:"date" db:"date"`
	Time           string    `json:"time" db:"time"`
	ActivePlayerNo int       `json:"active_player_no" db:"active_player_no"`
	CreatedBy      int       `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Teams []Team `json:"teams,omitempty" db:"-"`
}

// Accepts reports whether a team of type t is eligible for the race.
func (r *Race) Accepts(t TeamType) bool {
	return r.Type.Category() == t
}
