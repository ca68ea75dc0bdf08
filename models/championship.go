package models

import "time"

// ChampionshipStatus - статусы чемпионата, переходы только вперед.
type ChampionshipStatus string

const (
	StatusSetup    ChampionshipStatus = "setup"
	StatusGroup    ChampionshipStatus = "group"
	StatusKnockout ChampionshipStatus = "knockout"
	StatusFinished ChampionshipStatus = "finished"
)

type ScheduleType string

const (
	ScheduleRandom ScheduleType = "random"
	ScheduleManual ScheduleType = "manual"
)

// AllowedMaxTeams - допустимые размеры чемпионата.
var AllowedMaxTeams = []int{6, 8, 10, 16}

const DefaultMaxTeams = 6

type Championship struct {
	ID           string             `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Season       string             `json:"season" db:"season"`
	Status       ChampionshipStatus `json:"status" db:"status"`
	Teams        []string           `json:"teams" db:"team_ids"`
	WinnerID     *string            `json:"winner_id" db:"winner_id"`
	MaxTeams     int                `json:"max_teams" db:"max_teams"`
	ScheduleType ScheduleType       `json:"schedule_type" db:"schedule_type"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`

	Matches []string `json:"matches" db:"-"`
}

func (c *Championship) HasTeam(teamID string) bool {
	for _, id := range c.Teams {
		if id == teamID {
			return true
		}
	}
	return false
}

// KnockoutSize is the number of teams that qualify from the group phase.
func (c *Championship) KnockoutSize() int {
	if c.MaxTeams >= 16 {
		return 8
	}
	return 4
}

func IsAllowedMaxTeams(n int) bool {
	for _, allowed := range AllowedMaxTeams {
		if n == allowed {
			return true
		}
	}
	return false
}
