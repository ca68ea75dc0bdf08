// Package ledger computes the balance and goal deltas produced by match
// results and transfers. It works on snapshots and never touches storage.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/fjj-brasileirao/models"
)

var (
	ErrInvalidScore            = errors.New("score must not be negative")
	ErrTeamsPending            = errors.New("match teams are not determined yet")
	ErrSameTeams               = errors.New("home and away teams must differ")
	ErrInvalidAttribution      = errors.New("invalid goal attribution")
	ErrAttributionMismatch     = errors.New("goal attribution does not match the score")
	ErrPenaltyWinnerRequired   = errors.New("drawn knockout match requires a penalty winner")
	ErrUnexpectedPenaltyWinner = errors.New("penalty winner is only allowed on drawn knockout matches")
)

// Награды в fjjdoty за результат матча.
const (
	RewardWin  int64 = 10000
	RewardDraw int64 = 3000
	RewardLoss int64 = 1000
)

type ResultInput struct {
	HomeScore       int                 `json:"home_score"`
	AwayScore       int                 `json:"away_score"`
	Scorers         []models.GoalScorer `json:"scorers"`
	PenaltyWinnerID *string             `json:"penalty_winner_id"`
}

// ResultProposal describes the attribution a confirmed result must carry.
type ResultProposal struct {
	MatchID               string `json:"match_id"`
	HomeTeamID            string `json:"home_team_id"`
	AwayTeamID            string `json:"away_team_id"`
	HomeGoalsRequired     int    `json:"home_goals_required"`
	AwayGoalsRequired     int    `json:"away_goals_required"`
	RequiresPenaltyWinner bool   `json:"requires_penalty_winner"`
}

// ResultDelta is what applying a result changes. GoalDeltas and
// BalanceDeltas are net of any previously applied result for the match.
type ResultDelta struct {
	Match         *models.Match
	GoalDeltas    map[string]int
	BalanceDeltas map[string]int64
}

// Rewards returns the currency granted to the home and away team.
func Rewards(homeScore, awayScore int) (home, away int64) {
	switch {
	case homeScore > awayScore:
		return RewardWin, RewardLoss
	case homeScore < awayScore:
		return RewardLoss, RewardWin
	default:
		return RewardDraw, RewardDraw
	}
}

// Propose checks that a score can be entered for m.
func Propose(m *models.Match, homeScore, awayScore int) (ResultProposal, error) {
	if homeScore < 0 || awayScore < 0 {
		return ResultProposal{}, fmt.Errorf("%w: %d-%d", ErrInvalidScore, homeScore, awayScore)
	}
	home, away, ok := m.Teams()
	if !ok {
		return ResultProposal{}, fmt.Errorf("%w: match %s", ErrTeamsPending, m.ID)
	}
	if home == away {
		return ResultProposal{}, ErrSameTeams
	}
	return ResultProposal{
		MatchID:               m.ID,
		HomeTeamID:            home,
		AwayTeamID:            away,
		HomeGoalsRequired:     homeScore,
		AwayGoalsRequired:     awayScore,
		RequiresPenaltyWinner: m.Stage.IsKnockout() && homeScore == awayScore,
	}, nil
}

// ApplyResult validates in against m and returns the updated match with the
// net goal and balance changes. A previously played match has its stored
// scorers and reward reversed first, so re-applying never double counts.
func ApplyResult(m *models.Match, in ResultInput, now time.Time) (*ResultDelta, error) {
	proposal, err := Propose(m, in.HomeScore, in.AwayScore)
	if err != nil {
		return nil, err
	}
	scorers, err := normalizeScorers(in.Scorers, proposal)
	if err != nil {
		return nil, err
	}
	if err := checkPenaltyWinner(in.PenaltyWinnerID, proposal); err != nil {
		return nil, err
	}

	delta := &ResultDelta{
		GoalDeltas:    make(map[string]int),
		BalanceDeltas: make(map[string]int64),
	}

	if prevHome, prevAway, wasPlayed := m.Score(); wasPlayed {
		for _, s := range m.Scorers {
			delta.GoalDeltas[s.PlayerID] -= s.Count
		}
		h, a := Rewards(prevHome, prevAway)
		delta.BalanceDeltas[proposal.HomeTeamID] -= h
		delta.BalanceDeltas[proposal.AwayTeamID] -= a
	}

	for _, s := range scorers {
		delta.GoalDeltas[s.PlayerID] += s.Count
	}
	h, a := Rewards(in.HomeScore, in.AwayScore)
	delta.BalanceDeltas[proposal.HomeTeamID] += h
	delta.BalanceDeltas[proposal.AwayTeamID] += a

	prune(delta.GoalDeltas)
	prune(delta.BalanceDeltas)

	updated := *m
	hs, as := in.HomeScore, in.AwayScore
	updated.HomeScore = &hs
	updated.AwayScore = &as
	updated.Played = true
	updated.Scorers = scorers
	updated.PenaltyWinnerID = nil
	if proposal.RequiresPenaltyWinner {
		pw := *in.PenaltyWinnerID
		updated.PenaltyWinnerID = &pw
	}
	updated.UpdatedAt = now
	delta.Match = &updated

	return delta, nil
}

// normalizeScorers merges repeated entries and checks the per-team sums.
func normalizeScorers(in []models.GoalScorer, p ResultProposal) ([]models.GoalScorer, error) {
	out := make([]models.GoalScorer, 0, len(in))
	index := make(map[string]int, len(in))
	sums := map[string]int{p.HomeTeamID: 0, p.AwayTeamID: 0}

	for _, s := range in {
		if s.PlayerID == "" {
			return nil, fmt.Errorf("%w: player id is required", ErrInvalidAttribution)
		}
		if s.Count <= 0 {
			return nil, fmt.Errorf("%w: player %s has non-positive count %d", ErrInvalidAttribution, s.PlayerID, s.Count)
		}
		if _, ok := sums[s.TeamID]; !ok {
			return nil, fmt.Errorf("%w: team %s does not play in this match", ErrInvalidAttribution, s.TeamID)
		}
		sums[s.TeamID] += s.Count

		key := s.PlayerID + "|" + s.TeamID
		if i, ok := index[key]; ok {
			out[i].Count += s.Count
			continue
		}
		index[key] = len(out)
		out = append(out, s)
	}

	if sums[p.HomeTeamID] != p.HomeGoalsRequired {
		return nil, fmt.Errorf("%w: home scorers sum to %d, score is %d", ErrAttributionMismatch, sums[p.HomeTeamID], p.HomeGoalsRequired)
	}
	if sums[p.AwayTeamID] != p.AwayGoalsRequired {
		return nil, fmt.Errorf("%w: away scorers sum to %d, score is %d", ErrAttributionMismatch, sums[p.AwayTeamID], p.AwayGoalsRequired)
	}
	return out, nil
}

func checkPenaltyWinner(winner *string, p ResultProposal) error {
	if !p.RequiresPenaltyWinner {
		if winner != nil {
			return ErrUnexpectedPenaltyWinner
		}
		return nil
	}
	if winner == nil || (*winner != p.HomeTeamID && *winner != p.AwayTeamID) {
		return ErrPenaltyWinnerRequired
	}
	return nil
}

func prune[V int | int64](m map[string]V) {
	for k, v := range m {
		if v == 0 {
			delete(m, k)
		}
	}
}
