package models

import "time"

// Role определяет права клуба в системе.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleClub  Role = "club"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClub
}

// Club представляет зарегистрированный клуб. club_name служит логином.
type Club struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"` // контактное лицо
	ClubName     string    `json:"club_name" db:"club_name"`
	Description  string    `json:"description" db:"description"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	Address      *string   `json:"address,omitempty" db:"address"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Credentials struct {
	ClubName string `json:"club_name"`
	Password string `json:"password"`
}
