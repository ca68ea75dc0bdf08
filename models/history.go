package models

import "time"

type ChampionshipHistory struct {
	ID              string    `json:"id" db:"id"`
	Season          string    `json:"season" db:"season"`
	ChampionID      string    `json:"champion_id" db:"champion_id"`
	TopScorerID     string    `json:"top_scorer_id" db:"top_scorer_id"`
	FinalHighlights string    `json:"final_highlights" db:"final_highlights"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
