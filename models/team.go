package models

import "time"

// StartingBalance - стартовый баланс fjjdoty для новой команды.
const StartingBalance int64 = 50000

type Team struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Slug           string    `json:"slug" db:"slug"`
	LogoURL        string    `json:"logo_url" db:"logo_url"`
	BackgroundURL  string    `json:"background_url" db:"background_url"`
	FjjdotyBalance int64     `json:"fjjdoty_balance" db:"fjjdoty_balance"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	// Состав строится из players.team_id при чтении.
	Players []string `json:"players" db:"-"`
}

// HasPlayer reports whether playerID is on the roster.
func (t *Team) HasPlayer(playerID string) bool {
	for _, id := range t.Players {
		if id == playerID {
			return true
		}
	}
	return false
}
