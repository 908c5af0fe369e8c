package models

import "time"

// BibAssignment хранит стартовый номер игрока в рамках события.
type BibAssignment struct {
	ID        int       `json:"id" db:"id"`
	PlayerID  int       `json:"player_id" db:"player_id"`
	EventID   int       `json:"event_id" db:"event_id"`
	ClubID    int       `json:"club_id" db:"club_id"`
	BibNumber int       `json:"bib_number" db:"bib_number"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
