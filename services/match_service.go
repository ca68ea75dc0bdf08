package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/ledger"
	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateMatchInput struct {
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	Date       time.Time `json:"date"`
	MatchDay   int       `json:"match_day"`
}

// ResultProposalView - первая фаза ввода счёта: сколько голов распределить и кем.
type ResultProposalView struct {
	ledger.ResultProposal
	HomeRoster []*models.Player `json:"home_roster"`
	AwayRoster []*models.Player `json:"away_roster"`
}

type MatchService interface {
	Get(ctx context.Context, id string) (*models.Match, error)
	List(ctx context.Context, stage *models.MatchStage) ([]*models.Match, error)
	ListByTeam(ctx context.Context, teamID string) ([]*models.Match, error)
	CreateManual(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	Reschedule(ctx context.Context, id string, date time.Time) (*models.Match, error)
	Delete(ctx context.Context, id string) error
	ProposeResult(ctx context.Context, id string, homeScore, awayScore int) (*ResultProposalView, error)
	ConfirmResult(ctx context.Context, id string, input ledger.ResultInput) (*models.Match, error)
}

type matchService struct {
	writer
}

func NewMatchService(deps Deps) MatchService {
	return &matchService{writer: newWriter(deps)}
}

// load returns the current championship with its matches, knockout slots resolved.
func (s *matchService) load(ctx context.Context, exec repositories.SQLExecutor) (*models.Championship, []*models.Match, error) {
	c, err := s.Repos.Championships.GetCurrent(ctx, exec)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.Repos.Matches.ListByChampionship(ctx, exec, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, stored, nil
}

func findMatch(matches []*models.Match, id string) (*models.Match, error) {
	for _, m := range matches {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
}

func (s *matchService) Get(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.Repos.Matches.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if m.HomeSourceMatchID == nil && m.AwaySourceMatchID == nil {
		return m, nil
	}
	siblings, err := s.Repos.Matches.ListByChampionship(ctx, nil, m.ChampionshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve match %s: %w", id, err)
	}
	resolved, _ := brackets.ResolveSlots(m, brackets.IndexByID(siblings))
	return resolved, nil
}

func (s *matchService) List(ctx context.Context, stage *models.MatchStage) ([]*models.Match, error) {
	if stage != nil && !stage.IsValid() {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidMatchStage, *stage)
	}
	_, stored, err := s.load(ctx, nil)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	resolved := brackets.ResolveAll(stored)
	if stage == nil {
		return resolved, nil
	}
	filtered := make([]*models.Match, 0, len(resolved))
	for _, m := range resolved {
		if m.Stage == *stage {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (s *matchService) ListByTeam(ctx context.Context, teamID string) ([]*models.Match, error) {
	var stored []*models.Match

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Repos.Teams.GetByID(gCtx, nil, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		_, stored, err = s.load(gCtx, nil)
		if errors.Is(err, repositories.ErrChampionshipNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err)
	}

	matches := make([]*models.Match, 0)
	for _, m := range brackets.ResolveAll(stored) {
		if m.Involves(teamID) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *matchService) CreateManual(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.HomeTeamID == "" || input.AwayTeamID == "" {
		return nil, fmt.Errorf("%w: both teams are required", ErrValidationFailed)
	}
	if input.HomeTeamID == input.AwayTeamID {
		return nil, ledger.ErrSameTeams
	}
	matchDay := input.MatchDay
	if matchDay <= 0 {
		matchDay = 1
	}

	var created *models.Match
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, stored, err := s.load(ctx, exec)
		if err != nil {
			return err
		}
		if c.Status != models.StatusSetup && c.Status != models.StatusGroup {
			return fmt.Errorf("%w: status is '%s'", ErrMatchNotEditable, c.Status)
		}
		for _, id := range []string{input.HomeTeamID, input.AwayTeamID} {
			if !c.HasTeam(id) {
				return fmt.Errorf("%w: %s", ErrTeamNotRegistered, id)
			}
		}
		for _, m := range stored {
			if m.Stage == models.StageGroup && m.Involves(input.HomeTeamID) && m.Involves(input.AwayTeamID) {
				return fmt.Errorf("%w: match %s", ErrMatchAlreadyScheduled, m.ID)
			}
		}

		now := s.now()
		date := input.Date.UTC()
		if input.Date.IsZero() {
			date = now
		}
		home, away := input.HomeTeamID, input.AwayTeamID
		created = &models.Match{
			ID:             s.NewID(),
			ChampionshipID: c.ID,
			HomeTeamID:     &home,
			AwayTeamID:     &away,
			Date:           date,
			Stage:          models.StageGroup,
			MatchDay:       matchDay,
			Scorers:        []models.GoalScorer{},
			IsManual:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.Repos.Matches.Create(ctx, exec, created)
	}, repositories.CollectionMatches)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "manual match created",
		slog.String("match_id", created.ID), slog.String("home_team_id", input.HomeTeamID), slog.String("away_team_id", input.AwayTeamID))
	return created, nil
}

func (s *matchService) Reschedule(ctx context.Context, id string, date time.Time) (*models.Match, error) {
	if date.IsZero() {
		return nil, ErrInvalidMatchDate
	}
	var updated *models.Match
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		_, stored, err := s.load(ctx, exec)
		if err != nil {
			return err
		}
		m, err := findMatch(stored, id)
		if err != nil {
			return err
		}
		if m.Played {
			return ErrMatchPlayed
		}
		m.Date = date.UTC()
		m.UpdatedAt = s.now()
		if err := s.Repos.Matches.Update(ctx, exec, m); err != nil {
			return err
		}
		updated, _ = brackets.ResolveSlots(m, brackets.IndexByID(stored))
		return nil
	}, repositories.CollectionMatches)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return updated, nil
}

func (s *matchService) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		_, stored, err := s.load(ctx, exec)
		if err != nil {
			return err
		}
		m, err := findMatch(stored, id)
		if err != nil {
			return err
		}
		if !m.IsManual {
			return ErrMatchNotManual
		}
		if m.Played {
			return ErrMatchPlayed
		}
		return s.Repos.Matches.Delete(ctx, exec, id)
	}, repositories.CollectionMatches)
	if err != nil {
		return handleRepositoryError(err)
	}
	s.Logger.InfoContext(ctx, "manual match deleted", slog.String("match_id", id))
	return nil
}

func (s *matchService) ProposeResult(ctx context.Context, id string, homeScore, awayScore int) (*ResultProposalView, error) {
	_, stored, err := s.load(ctx, nil)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	resolved := brackets.ResolveAll(stored)
	m, err := findMatch(resolved, id)
	if err != nil {
		return nil, err
	}
	proposal, err := ledger.Propose(m, homeScore, awayScore)
	if err != nil {
		return nil, err
	}

	view := &ResultProposalView{ResultProposal: proposal}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.HomeRoster, err = s.Repos.Players.List(gCtx, nil, repositories.PlayerFilter{TeamID: &proposal.HomeTeamID})
		return err
	})
	g.Go(func() error {
		var err error
		view.AwayRoster, err = s.Repos.Players.List(gCtx, nil, repositories.PlayerFilter{TeamID: &proposal.AwayTeamID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load rosters: %w", err)
	}
	return view, nil
}

// ConfirmResult records a score with its scorers. Player goals and team
// balances move by the net difference to what the match held before, and a
// knockout winner is pushed into the next match once all its sources are played.
func (s *matchService) ConfirmResult(ctx context.Context, id string, input ledger.ResultInput) (*models.Match, error) {
	var saved *models.Match
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, stored, err := s.load(ctx, exec)
		if err != nil {
			return err
		}
		resolved := brackets.ResolveAll(stored)
		m, err := findMatch(resolved, id)
		if err != nil {
			return err
		}

		switch {
		case m.Stage == models.StageGroup && c.Status != models.StatusGroup,
			m.Stage.IsKnockout() && c.Status != models.StatusKnockout:
			return fmt.Errorf("%w: %s match while championship is '%s'", ErrResultNotAllowed, m.Stage, c.Status)
		}
		for _, dep := range brackets.Dependents(m.ID, resolved) {
			if dep.Played {
				return fmt.Errorf("%w: %s", ErrDependentMatchPlayed, dep.ID)
			}
		}
		for _, scorer := range input.Scorers {
			if _, err := s.Repos.Players.GetByID(ctx, exec, scorer.PlayerID); err != nil {
				if errors.Is(err, repositories.ErrPlayerNotFound) {
					return fmt.Errorf("%w: %q", ErrScorerNotFound, scorer.PlayerID)
				}
				return err
			}
		}

		delta, err := ledger.ApplyResult(m, input, s.now())
		if err != nil {
			return err
		}

		if err := s.Repos.Matches.Update(ctx, exec, delta.Match); err != nil {
			return err
		}
		for _, playerID := range sortedKeys(delta.GoalDeltas) {
			err := s.Repos.Players.AddGoals(ctx, exec, playerID, delta.GoalDeltas[playerID])
			if errors.Is(err, repositories.ErrPlayerNotFound) && delta.GoalDeltas[playerID] < 0 {
				// Игрок удалён после матча - снимать голы не с кого.
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to update goals of player %s: %w", playerID, err)
			}
		}
		for _, teamID := range sortedKeys(delta.BalanceDeltas) {
			if err := s.Repos.Teams.AdjustBalance(ctx, exec, teamID, delta.BalanceDeltas[teamID]); err != nil {
				return fmt.Errorf("failed to update balance of team %s: %w", teamID, err)
			}
		}

		if m.Stage.IsKnockout() {
			if err := s.cascade(ctx, exec, delta.Match, stored); err != nil {
				return err
			}
		}
		saved = delta.Match
		return nil
	}, repositories.CollectionMatches, repositories.CollectionPlayers, repositories.CollectionTeams)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "match result confirmed",
		slog.String("match_id", saved.ID),
		slog.Int("home_score", derefInt(saved.HomeScore)),
		slog.Int("away_score", derefInt(saved.AwayScore)))
	return saved, nil
}

// cascade persists the resolved slots of the matches fed by played, once all
// of their sources are played.
func (s *matchService) cascade(ctx context.Context, exec repositories.SQLExecutor, played *models.Match, stored []*models.Match) error {
	byID := brackets.IndexByID(stored)
	byID[played.ID] = played
	for _, dep := range brackets.Dependents(played.ID, stored) {
		if !brackets.SourcesPlayed(dep, byID) {
			continue
		}
		next, changed := brackets.ResolveSlots(dep, byID)
		if !changed {
			continue
		}
		next.UpdatedAt = s.now()
		if err := s.Repos.Matches.Update(ctx, exec, next); err != nil {
			return fmt.Errorf("failed to advance winner into match %s: %w", dep.ID, err)
		}
		s.Logger.InfoContext(ctx, "knockout slots resolved",
			slog.String("match_id", next.ID),
			slog.String("home_team_id", derefString(next.HomeTeamID)),
			slog.String("away_team_id", derefString(next.AwayTeamID)))
	}
	return nil
}

func sortedKeys[V int | int64](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
