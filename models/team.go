package models

import "time"

type TeamType string

const (
	TeamTypeMix       TeamType = "mix"
	TeamTypeWomenOnly TeamType = "women-only"
)

const (
	mixTeamCapacity       = 8
	womenOnlyTeamCapacity = 6

	mixMinRaceRoster       = 6
	womenOnlyMinRaceRoster = 4
)

func (t TeamType) Valid() bool {
	return t == TeamTypeMix || t == TeamTypeWomenOnly
}

// Capacity is the maximum number of players a team of this type may hold.
func (t TeamType) Capacity() int {
	if t == TeamTypeWomenOnly {
		return womenOnlyTeamCapacity
	}
	return mixTeamCapacity
}

// MinRaceRoster is the smallest roster that may be entered into a race.
func (t TeamType) MinRaceRoster() int {
	if t == TeamTypeWomenOnly {
		return womenOnlyMinRaceRoster
	}
	return mixMinRaceRoster
}

// AllowsGender reports whether a player of gender g may join a team of this type.
func (t TeamType) AllowsGender(g Gender) bool {
	if t == TeamTypeWomenOnly {
		return g == GenderFemale
	}
	return g.Valid()
}

type PaymentStatus string

const (
	PaymentUnpaid     PaymentStatus = "unpaid"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentProcessing, PaymentPaid:
		return true
	}
	return false
}

// Team представляет команду клуба. PlayerIDs хранит состав в порядке добавления.
type Team struct {
	ID             int           `json:"id" db:"id"`
	Name           string        `json:"team_name" db:"team_name"`
	Type           TeamType      `json:"team_type" db:"team_type"`
	Description    *string       `json:"description,omitempty" db:"description"`
	ClubID         int           `json:"club_id" db:"club_id"`
	PaymentStatus  PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentSlipKey *string       `json:"-" db:"payment_slip_key"`
	PaymentSlipURL *string       `json:"payment_slip_url,omitempty" db:"payment_slip_url"`
	PaymentComment *string       `json:"payment_comment,omitempty" db:"payment_comment"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	PlayerIDs []int    `json:"player_ids" db:"-"`
	Players   []Player `json:"players,omitempty" db:"-"`
}

func (t *Team) Size() int {
	return len(t.PlayerIDs)
}

func (t *Team) AvailableSlots() int {
	slots := t.Type.Capacity() - t.Size()
	if slots < 0 {
		return 0
	}
	return slots
}

func (t *Team) HasPlayer(playerID int) bool {
	for _, id := range t.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}
