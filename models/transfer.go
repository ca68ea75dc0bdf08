package models

import "time"

// Transfer - запись в журнале трансферов. Не изменяется после создания.
type Transfer struct {
	ID         string    `json:"id" db:"id"`
	PlayerID   string    `json:"player_id" db:"player_id"`
	FromTeamID *string   `json:"from_team_id" db:"from_team_id"` // nil - внешний трансфер
	ToTeamID   string    `json:"to_team_id" db:"to_team_id"`
	Amount     int64     `json:"amount" db:"amount"`
	Date       time.Time `json:"date" db:"date"`
}

func (t *Transfer) IsExternal() bool {
	return t.FromTeamID == nil
}

func (t *Transfer) Involves(teamID string) bool {
	return t.ToTeamID == teamID || (t.FromTeamID != nil && *t.FromTeamID == teamID)
}
