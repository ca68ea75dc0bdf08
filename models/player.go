package models

import "time"

type Player struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	TeamID    *string   `json:"team_id" db:"team_id"` // nil - свободный агент
	Goals     int       `json:"goals" db:"goals"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Player) IsFreeAgent() bool {
	return p.TeamID == nil
}

// BelongsTo reports whether the player is currently registered for teamID.
func (p *Player) BelongsTo(teamID string) bool {
	return p.TeamID != nil && *p.TeamID == teamID
}
