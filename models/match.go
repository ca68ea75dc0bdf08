package models

import "time"

type MatchStage string

const (
	StageGroup        MatchStage = "group"
	StageQuarterfinal MatchStage = "quarterfinal"
	StageSemifinal    MatchStage = "semifinal"
	StageFinal        MatchStage = "final"
)

func (s MatchStage) IsValid() bool {
	switch s {
	case StageGroup, StageQuarterfinal, StageSemifinal, StageFinal:
		return true
	}
	return false
}

func (s MatchStage) IsKnockout() bool {
	return s == StageQuarterfinal || s == StageSemifinal || s == StageFinal
}

// GoalScorer - сколько голов игрок забил за команду в матче.
type GoalScorer struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
	Count    int    `json:"count"`
}

// Slot is one side of a match. A nil TeamID means the side is pending
// until SourceMatchID has a winner.
type Slot struct {
	TeamID        *string
	SourceMatchID *string
}

func (s Slot) IsPending() bool {
	return s.TeamID == nil
}

type Match struct {
	ID                string       `json:"id" db:"id"`
	ChampionshipID    string       `json:"championship_id" db:"championship_id"`
	HomeTeamID        *string      `json:"home_team_id" db:"home_team_id"`
	AwayTeamID        *string      `json:"away_team_id" db:"away_team_id"`
	HomeSourceMatchID *string      `json:"home_source_match_id,omitempty" db:"home_source_match_id"`
	AwaySourceMatchID *string      `json:"away_source_match_id,omitempty" db:"away_source_match_id"`
	Date              time.Time    `json:"date" db:"date"`
	HomeScore         *int         `json:"home_score" db:"home_score"`
	AwayScore         *int         `json:"away_score" db:"away_score"`
	Played            bool         `json:"played" db:"played"`
	Stage             MatchStage   `json:"stage" db:"stage"`
	MatchDay          int          `json:"match_day" db:"match_day"`
	Scorers           []GoalScorer `json:"scorers" db:"scorers"`
	PenaltyWinnerID   *string      `json:"penalty_winner_id,omitempty" db:"penalty_winner_id"`
	IsManual          bool         `json:"is_manual" db:"is_manual"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

func (m *Match) Home() Slot {
	return Slot{TeamID: m.HomeTeamID, SourceMatchID: m.HomeSourceMatchID}
}

func (m *Match) Away() Slot {
	return Slot{TeamID: m.AwayTeamID, SourceMatchID: m.AwaySourceMatchID}
}

// Teams returns both team ids when neither side is pending.
func (m *Match) Teams() (home, away string, ok bool) {
	if m.HomeTeamID == nil || m.AwayTeamID == nil {
		return "", "", false
	}
	return *m.HomeTeamID, *m.AwayTeamID, true
}

// Score returns the final score of a played match.
func (m *Match) Score() (home, away int, ok bool) {
	if !m.Played || m.HomeScore == nil || m.AwayScore == nil {
		return 0, 0, false
	}
	return *m.HomeScore, *m.AwayScore, true
}

func (m *Match) Involves(teamID string) bool {
	return (m.HomeTeamID != nil && *m.HomeTeamID == teamID) ||
		(m.AwayTeamID != nil && *m.AwayTeamID == teamID)
}
