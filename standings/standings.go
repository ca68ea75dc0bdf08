// Package standings builds the group-phase league table from played matches.
package standings

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/fjj-brasileirao/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	pointsWin  = 3
	pointsDraw = 1
)

var ErrNotEnoughTeams = errors.New("not enough teams in standings")

// Calculate returns one standing per team, ranked by points, goal difference,
// goals for and then team name. Only played group matches count.
func Calculate(teams []*models.Team, matches []*models.Match) []models.TeamStanding {
	table := make([]models.TeamStanding, 0, len(teams))
	index := make(map[string]int, len(teams))
	for _, t := range teams {
		if t == nil {
			continue
		}
		if _, dup := index[t.ID]; dup {
			continue
		}
		index[t.ID] = len(table)
		table = append(table, models.TeamStanding{TeamID: t.ID, TeamName: t.Name})
	}

	for _, m := range matches {
		if m == nil || m.Stage != models.StageGroup {
			continue
		}
		homeGoals, awayGoals, played := m.Score()
		if !played {
			continue
		}
		homeID, awayID, ok := m.Teams()
		if !ok {
			continue
		}
		hi, okHome := index[homeID]
		ai, okAway := index[awayID]
		if !okHome || !okAway {
			continue
		}
		fold(&table[hi], homeGoals, awayGoals)
		fold(&table[ai], awayGoals, homeGoals)
	}

	Sort(table)
	return table
}

func fold(s *models.TeamStanding, scored, conceded int) {
	s.Played++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		s.Won++
		s.Points += pointsWin
	case scored == conceded:
		s.Drawn++
		s.Points += pointsDraw
	default:
		s.Lost++
	}
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst
}

// Sort orders a table in place using the league tie-break chain.
func Sort(table []models.TeamStanding) {
	// Collator не потокобезопасен, создаем на каждый вызов.
	names := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		if c := names.CompareString(a.TeamName, b.TeamName); c != 0 {
			return c < 0
		}
		return a.TeamID < b.TeamID
	})
}

// Top returns the ids of the first n teams of a ranked table.
func Top(table []models.TeamStanding, n int) ([]string, error) {
	if n <= 0 || len(table) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughTeams, n, len(table))
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = table[i].TeamID
	}
	return ids, nil
}
