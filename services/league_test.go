package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/ledger"
	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/jonboulle/clockwork"
)

type testLeague struct {
	t      *testing.T
	ctx    context.Context
	store  *memStore
	tx     *memTx
	notify *recordingNotifier
	clock  *clockwork.FakeClock
	svc    Services
	teams  []*models.Team
	scorer map[string]string // команда -> игрок, который забивает за неё
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

// newTestLeague registers n teams, each with one player.
func newTestLeague(t *testing.T, n int) *testLeague {
	t.Helper()
	store := newMemStore()
	l := &testLeague{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		tx:     &memTx{store: store},
		notify: &recordingNotifier{},
		clock:  clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		scorer: make(map[string]string),
	}
	l.svc = NewServices(Deps{
		Repos:    store.repositories(),
		Tx:       l.tx,
		Clock:    l.clock,
		Notifier: l.notify,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID:    sequentialIDs(),
	}, brackets.MatchDayCircle)

	for i := 0; i < n; i++ {
		team, err := l.svc.Teams.Create(l.ctx, CreateTeamInput{Name: fmt.Sprintf("Team %02d", i)})
		if err != nil {
			t.Fatalf("create team: %v", err)
		}
		teamID := team.ID
		player, err := l.svc.Players.Create(l.ctx, CreatePlayerInput{Name: fmt.Sprintf("Striker %02d", i), TeamID: &teamID})
		if err != nil {
			t.Fatalf("create player: %v", err)
		}
		l.teams = append(l.teams, team)
		l.scorer[team.ID] = player.ID
	}
	return l
}

func (l *testLeague) teamIDs() []string {
	ids := make([]string, len(l.teams))
	for i, t := range l.teams {
		ids[i] = t.ID
	}
	return ids
}

func (l *testLeague) index(teamID string) int {
	for i, t := range l.teams {
		if t.ID == teamID {
			return i
		}
	}
	l.t.Fatalf("unknown team %s", teamID)
	return -1
}

func (l *testLeague) createChampionship(schedule models.ScheduleType) *models.Championship {
	l.t.Helper()
	c, err := l.svc.Championship.Create(l.ctx, CreateChampionshipInput{
		Name:         "Brasileirão",
		Season:       "2024",
		MaxTeams:     len(l.teams),
		ScheduleType: schedule,
		TeamIDs:      l.teamIDs(),
	})
	if err != nil {
		l.t.Fatalf("create championship: %v", err)
	}
	return c
}

func (l *testLeague) start() *models.Championship {
	l.t.Helper()
	c, err := l.svc.Championship.Start(l.ctx)
	if err != nil {
		l.t.Fatalf("start: %v", err)
	}
	return c
}

// result confirms home-away for a match, crediting every goal to each team's striker.
func (l *testLeague) result(matchID string, home, away int, penaltyWinner *string) (*models.Match, error) {
	l.t.Helper()
	m, err := l.svc.Matches.Get(l.ctx, matchID)
	if err != nil {
		l.t.Fatalf("get match: %v", err)
	}
	homeID, awayID, ok := m.Teams()
	if !ok {
		l.t.Fatalf("match %s still has pending teams", matchID)
	}
	var scorers []models.GoalScorer
	if home > 0 {
		scorers = append(scorers, models.GoalScorer{PlayerID: l.scorer[homeID], TeamID: homeID, Count: home})
	}
	if away > 0 {
		scorers = append(scorers, models.GoalScorer{PlayerID: l.scorer[awayID], TeamID: awayID, Count: away})
	}
	return l.svc.Matches.ConfirmResult(l.ctx, matchID, ledger.ResultInput{
		HomeScore:       home,
		AwayScore:       away,
		Scorers:         scorers,
		PenaltyWinnerID: penaltyWinner,
	})
}

// playGroup plays every group match; the team registered first wins 1-0.
func (l *testLeague) playGroup(skip int) {
	l.t.Helper()
	stage := models.StageGroup
	matches, err := l.svc.Matches.List(l.ctx, &stage)
	if err != nil {
		l.t.Fatalf("list group matches: %v", err)
	}
	for _, m := range matches[:len(matches)-skip] {
		home, away, _ := m.Teams()
		h, a := 1, 0
		if l.index(away) < l.index(home) {
			h, a = 0, 1
		}
		if _, err := l.result(m.ID, h, a, nil); err != nil {
			l.t.Fatalf("result for %s: %v", m.ID, err)
		}
	}
}

func (l *testLeague) balance(teamID string) int64 {
	l.t.Helper()
	team, err := l.svc.Teams.GetByID(l.ctx, teamID)
	if err != nil {
		l.t.Fatalf("get team: %v", err)
	}
	return team.FjjdotyBalance
}

func (l *testLeague) goals(playerID string) int {
	l.t.Helper()
	p, err := l.svc.Players.GetByID(l.ctx, playerID)
	if err != nil {
		l.t.Fatalf("get player: %v", err)
	}
	return p.Goals
}

func (l *testLeague) totalBalance() int64 {
	var total int64
	for _, t := range l.teams {
		total += l.balance(t.ID)
	}
	return total
}

func strPtr(s string) *string { return &s }
