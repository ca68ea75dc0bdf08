package services

import (
	"errors"
	"testing"

	"github.com/Dosada05/fjj-brasileirao/ledger"
	"github.com/Dosada05/fjj-brasileirao/models"
)

func TestStartZeroesGoalsDiscardsOldMatchesAndSchedulesRoundRobin(t *testing.T) {
	l := newTestLeague(t, 6)
	c := l.createChampionship(models.ScheduleRandom)

	old, err := l.svc.Matches.CreateManual(l.ctx, CreateMatchInput{HomeTeamID: l.teams[0].ID, AwayTeamID: l.teams[1].ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	striker := l.scorer[l.teams[0].ID]
	l.store.players[striker].Goals = 7

	started := l.start()
	if started.Status != models.StatusGroup {
		t.Fatalf("expected status group, got %s", started.Status)
	}
	if l.goals(striker) != 0 {
		t.Fatalf("expected goals reset to 0, got %d", l.goals(striker))
	}
	if _, err := l.svc.Matches.Get(l.ctx, old.ID); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected old match to be discarded, got %v", err)
	}

	matches, err := l.svc.Matches.List(l.ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 15 {
		t.Fatalf("expected 15 group fixtures, got %d", len(matches))
	}
	pairs := make(map[string]bool)
	for _, m := range matches {
		if m.Stage != models.StageGroup || m.IsManual || m.Played || m.ChampionshipID != c.ID {
			t.Fatalf("unexpected fixture %+v", m)
		}
		home, away, _ := m.Teams()
		key := home + "|" + away
		if home > away {
			key = away + "|" + home
		}
		if pairs[key] {
			t.Fatalf("pair %s scheduled twice", key)
		}
		pairs[key] = true
	}
	if len(started.Matches) != 15 {
		t.Fatalf("expected championship to list 15 match ids, got %d", len(started.Matches))
	}
}

func TestStartManualScheduleCreatesNoFixtures(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleManual)

	started := l.start()
	if started.Status != models.StatusGroup {
		t.Fatalf("expected status group, got %s", started.Status)
	}
	if len(started.Matches) != 0 {
		t.Fatalf("expected no fixtures for a manual schedule, got %d", len(started.Matches))
	}
}

func TestStartRequiresFullChampionship(t *testing.T) {
	l := newTestLeague(t, 6)
	if _, err := l.svc.Championship.Create(l.ctx, CreateChampionshipInput{
		Name: "Brasileirão", Season: "2024", TeamIDs: l.teamIDs()[:5],
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := l.svc.Championship.Start(l.ctx); !errors.Is(err, ErrChampionshipNotFull) {
		t.Fatalf("expected ErrChampionshipNotFull, got %v", err)
	}
	c, _ := l.svc.Championship.Current(l.ctx)
	if c.Status != models.StatusSetup {
		t.Fatalf("expected status to stay setup, got %s", c.Status)
	}
}

func TestOutOfOrderTransitionsAreRejected(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleRandom)

	if _, err := l.svc.Championship.Advance(l.ctx); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition from setup, got %v", err)
	}
	if _, err := l.svc.Championship.Finalize(l.ctx, FinalizeChampionshipInput{WinnerID: l.teams[0].ID}); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition for finalize, got %v", err)
	}

	l.start()
	if _, err := l.svc.Championship.Start(l.ctx); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition on second start, got %v", err)
	}
}

func TestAdvanceWithUnplayedGroupMatchFails(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleRandom)
	l.start()
	l.playGroup(1)

	if _, err := l.svc.Championship.Advance(l.ctx); !errors.Is(err, ErrGroupPhaseIncomplete) {
		t.Fatalf("expected ErrGroupPhaseIncomplete, got %v", err)
	}

	c, _ := l.svc.Championship.Current(l.ctx)
	if c.Status != models.StatusGroup {
		t.Fatalf("expected status group, got %s", c.Status)
	}
	for _, m := range l.store.matches {
		if m.Stage.IsKnockout() {
			t.Fatalf("knockout match %s created despite failed advance", m.ID)
		}
	}
}

func TestAdvanceWithoutGroupMatchesFails(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleManual)
	l.start()

	if _, err := l.svc.Championship.Advance(l.ctx); !errors.Is(err, ErrNoGroupMatches) {
		t.Fatalf("expected ErrNoGroupMatches, got %v", err)
	}
}

func TestAdvanceSeedsSemifinalsFromStandings(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleRandom)
	l.start()
	l.playGroup(0)

	table, err := l.svc.Championship.Standings(l.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table[0].TeamID != l.teams[0].ID || table[0].Points != 15 {
		t.Fatalf("expected Team 00 on top with 15 points, got %+v", table[0])
	}

	c, err := l.svc.Championship.Advance(l.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.StatusKnockout {
		t.Fatalf("expected status knockout, got %s", c.Status)
	}

	semis, err := l.svc.Matches.List(l.ctx, stagePtr(models.StageSemifinal))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(semis) != 2 {
		t.Fatalf("expected 2 semifinals, got %d", len(semis))
	}
	want := [][2]int{{0, 3}, {1, 2}}
	for i, m := range semis {
		home, away, ok := m.Teams()
		if !ok || l.index(home) != want[i][0] || l.index(away) != want[i][1] {
			t.Fatalf("semifinal %d: expected seeds %v, got %s v %s", i+1, want[i], home, away)
		}
	}

	finals, _ := l.svc.Matches.List(l.ctx, stagePtr(models.StageFinal))
	if len(finals) != 1 || !finals[0].Home().IsPending() || !finals[0].Away().IsPending() {
		t.Fatalf("expected one final with pending slots, got %+v", finals)
	}
}

func TestKnockoutWinnersCascadeIntoFinal(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleRandom)
	l.start()
	l.playGroup(0)
	if _, err := l.svc.Championship.Advance(l.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	semis, _ := l.svc.Matches.List(l.ctx, stagePtr(models.StageSemifinal))
	final, _ := l.svc.Matches.List(l.ctx, stagePtr(models.StageFinal))
	finalID := final[0].ID

	// SF1: Team 00 - Team 03 2-2, Team 03 on penalties.
	sf1Away := *semis[0].AwayTeamID
	if _, err := l.result(semis[0].ID, 2, 2, nil); !errors.Is(err, ledger.ErrPenaltyWinnerRequired) {
		t.Fatalf("expected ErrPenaltyWinnerRequired, got %v", err)
	}
	if _, err := l.result(semis[0].ID, 2, 2, &sf1Away); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored := l.store.matches[finalID]; stored.HomeTeamID != nil {
		t.Fatalf("final must stay pending until both semifinals are played")
	}

	if _, err := l.result(semis[1].ID, 0, 1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := l.store.matches[finalID]
	if stored.HomeTeamID == nil || *stored.HomeTeamID != l.teams[3].ID ||
		stored.AwayTeamID == nil || *stored.AwayTeamID != l.teams[2].ID {
		t.Fatalf("expected final Team 03 v Team 02, got %v v %v", stored.HomeTeamID, stored.AwayTeamID)
	}

	// Исправление полуфинала меняет финалиста.
	if _, err := l.result(semis[0].ID, 3, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored = l.store.matches[finalID]
	if *stored.HomeTeamID != l.teams[0].ID {
		t.Fatalf("expected corrected semifinal winner Team 00 in final, got %s", *stored.HomeTeamID)
	}

	if _, err := l.result(finalID, 1, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.result(semis[0].ID, 0, 3, nil); !errors.Is(err, ErrDependentMatchPlayed) {
		t.Fatalf("expected ErrDependentMatchPlayed, got %v", err)
	}
}

func TestSixteenTeamKnockoutCascadesThroughQuarterfinals(t *testing.T) {
	l := newTestLeague(t, 16)
	c := l.createChampionship(models.ScheduleRandom)
	if c.KnockoutSize() != 8 {
		t.Fatalf("expected 8 knockout teams, got %d", c.KnockoutSize())
	}
	l.start()
	l.playGroup(0)
	if _, err := l.svc.Championship.Advance(l.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quarters, err := l.svc.Matches.List(l.ctx, stagePtr(models.StageQuarterfinal))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quarters) != 4 {
		t.Fatalf("expected 4 quarterfinals, got %d", len(quarters))
	}
	// Сид i играет с сидом 7-i; ключ - индекс хозяина.
	qf := make(map[int]*models.Match)
	for _, m := range quarters {
		home, away, ok := m.Teams()
		if !ok {
			t.Fatalf("quarterfinal %s has pending teams", m.ID)
		}
		if l.index(home)+l.index(away) != 7 {
			t.Fatalf("unexpected quarterfinal pairing %d v %d", l.index(home), l.index(away))
		}
		qf[l.index(home)] = m
	}

	semis, _ := l.svc.Matches.List(l.ctx, stagePtr(models.StageSemifinal))
	if len(semis) != 2 {
		t.Fatalf("expected 2 semifinals, got %d", len(semis))
	}
	semiFedBy := func(qfID string) *models.Match {
		for _, m := range semis {
			if (m.HomeSourceMatchID != nil && *m.HomeSourceMatchID == qfID) ||
				(m.AwaySourceMatchID != nil && *m.AwaySourceMatchID == qfID) {
				return m
			}
		}
		t.Fatalf("no semifinal fed by %s", qfID)
		return nil
	}
	sf1, sf2 := semiFedBy(qf[0].ID), semiFedBy(qf[1].ID)
	if semiFedBy(qf[3].ID).ID != sf1.ID || semiFedBy(qf[2].ID).ID != sf2.ID {
		t.Fatalf("expected W(1v8) v W(4v5) and W(2v7) v W(3v6)")
	}

	if _, err := l.result(qf[0].ID, 1, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.store.matches[sf1.ID].HomeTeamID != nil {
		t.Fatalf("semifinal must stay pending until both quarterfinals are played")
	}
	if _, err := l.result(qf[3].ID, 1, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := l.store.matches[sf1.ID]
	if stored.HomeTeamID == nil || *stored.HomeTeamID != l.teams[0].ID ||
		stored.AwayTeamID == nil || *stored.AwayTeamID != l.teams[3].ID {
		t.Fatalf("expected semifinal Team 00 v Team 03, got %v v %v", stored.HomeTeamID, stored.AwayTeamID)
	}

	// Исправление четвертьфинала до полуфинала меняет участника.
	if _, err := l.result(qf[1].ID, 1, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.result(qf[2].ID, 1, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.result(qf[2].ID, 0, 1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored = l.store.matches[sf2.ID]
	if stored.AwayTeamID == nil || *stored.AwayTeamID != l.teams[5].ID {
		t.Fatalf("expected corrected quarterfinal winner Team 05 in semifinal, got %v", stored.AwayTeamID)
	}

	if _, err := l.result(sf1.ID, 1, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.result(qf[0].ID, 0, 1, nil); !errors.Is(err, ErrDependentMatchPlayed) {
		t.Fatalf("expected ErrDependentMatchPlayed, got %v", err)
	}
	if winner := *l.store.matches[sf1.ID].HomeTeamID; winner != l.teams[0].ID {
		t.Fatalf("rejected correction changed the semifinal: %s", winner)
	}
}

func TestFinalizeAppendsHistory(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleRandom)
	l.start()
	l.playGroup(0)
	if _, err := l.svc.Championship.Advance(l.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := l.svc.Championship.Finalize(l.ctx, FinalizeChampionshipInput{WinnerID: "nope", TopScorerID: l.scorer[l.teams[0].ID]}); !errors.Is(err, ErrWinnerNotInChampionship) {
		t.Fatalf("expected ErrWinnerNotInChampionship, got %v", err)
	}
	if _, err := l.svc.Championship.Finalize(l.ctx, FinalizeChampionshipInput{WinnerID: l.teams[0].ID, TopScorerID: "nope"}); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}

	c, err := l.svc.Championship.Finalize(l.ctx, FinalizeChampionshipInput{
		WinnerID:        l.teams[0].ID,
		TopScorerID:     l.scorer[l.teams[0].ID],
		FinalHighlights: "  late winner  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.StatusFinished || c.WinnerID == nil || *c.WinnerID != l.teams[0].ID {
		t.Fatalf("unexpected championship after finalize: %+v", c)
	}

	history, err := l.svc.History.List(l.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 || history[0].Season != "2024" || history[0].FinalHighlights != "late winner" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestCreateChampionshipRules(t *testing.T) {
	l := newTestLeague(t, 6)

	cases := []struct {
		name  string
		input CreateChampionshipInput
		want  error
	}{
		{"missing name", CreateChampionshipInput{Season: "2024"}, ErrChampionshipNameReq},
		{"bad size", CreateChampionshipInput{Name: "x", Season: "2024", MaxTeams: 7}, ErrInvalidMaxTeams},
		{"bad schedule", CreateChampionshipInput{Name: "x", Season: "2024", ScheduleType: "weekly"}, ErrInvalidScheduleType},
		{"duplicate team", CreateChampionshipInput{Name: "x", Season: "2024", TeamIDs: []string{l.teams[0].ID, l.teams[0].ID}}, ErrDuplicateTeamEntry},
		{"unknown team", CreateChampionshipInput{Name: "x", Season: "2024", TeamIDs: []string{"ghost"}}, ErrTeamNotFound},
	}
	for _, tc := range cases {
		if _, err := l.svc.Championship.Create(l.ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	c := l.createChampionship(models.ScheduleRandom)
	if c.MaxTeams != 6 || c.Status != models.StatusSetup {
		t.Fatalf("unexpected championship: %+v", c)
	}
	if _, err := l.svc.Championship.Create(l.ctx, CreateChampionshipInput{Name: "again", Season: "2025"}); !errors.Is(err, ErrChampionshipExists) {
		t.Fatalf("expected ErrChampionshipExists, got %v", err)
	}
}

func TestRegistrationOnlyInSetup(t *testing.T) {
	l := newTestLeague(t, 7)
	if _, err := l.svc.Championship.Create(l.ctx, CreateChampionshipInput{Name: "x", Season: "2024", TeamIDs: l.teamIDs()[:5]}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := l.svc.Championship.AddTeam(l.ctx, l.teams[0].ID); !errors.Is(err, ErrTeamAlreadyRegistered) {
		t.Fatalf("expected ErrTeamAlreadyRegistered, got %v", err)
	}
	if _, err := l.svc.Championship.AddTeam(l.ctx, l.teams[5].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.svc.Championship.AddTeam(l.ctx, l.teams[6].ID); !errors.Is(err, ErrChampionshipFull) {
		t.Fatalf("expected ErrChampionshipFull, got %v", err)
	}
	if _, err := l.svc.Championship.RemoveTeam(l.ctx, l.teams[6].ID); !errors.Is(err, ErrTeamNotRegistered) {
		t.Fatalf("expected ErrTeamNotRegistered, got %v", err)
	}

	l.start()
	if _, err := l.svc.Championship.RemoveTeam(l.ctx, l.teams[0].ID); !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestResetRemovesChampionshipAndMatches(t *testing.T) {
	l := newTestLeague(t, 6)
	l.createChampionship(models.ScheduleRandom)
	l.start()

	if err := l.svc.Championship.Reset(l.ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.svc.Championship.Current(l.ctx); !errors.Is(err, ErrChampionshipNotFound) {
		t.Fatalf("expected ErrChampionshipNotFound, got %v", err)
	}
	if len(l.store.matches) != 0 {
		t.Fatalf("expected matches to be deleted, %d left", len(l.store.matches))
	}
	if err := l.svc.Championship.Reset(l.ctx); !errors.Is(err, ErrChampionshipNotFound) {
		t.Fatalf("expected ErrChampionshipNotFound on second reset, got %v", err)
	}
}

func stagePtr(s models.MatchStage) *models.MatchStage { return &s }
