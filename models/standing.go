package models

// TeamStanding is derived from played group matches and never stored.
type TeamStanding struct {
	TeamID         string `json:"team_id"`
	TeamName       string `json:"team_name"`
	Points         int    `json:"points"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
}
