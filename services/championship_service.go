package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	"github.com/Dosada05/fjj-brasileirao/standings"
	"golang.org/x/sync/errgroup"
)

type CreateChampionshipInput struct {
	Name         string              `json:"name"`
	Season       string              `json:"season"`
	MaxTeams     int                 `json:"max_teams"`
	ScheduleType models.ScheduleType `json:"schedule_type"`
	TeamIDs      []string            `json:"team_ids"`
}

type FinalizeChampionshipInput struct {
	WinnerID        string `json:"winner_id"`
	TopScorerID     string `json:"top_scorer_id"`
	FinalHighlights string `json:"final_highlights"`
}

type ChampionshipService interface {
	Current(ctx context.Context) (*models.Championship, error)
	Create(ctx context.Context, input CreateChampionshipInput) (*models.Championship, error)
	AddTeam(ctx context.Context, teamID string) (*models.Championship, error)
	RemoveTeam(ctx context.Context, teamID string) (*models.Championship, error)
	Start(ctx context.Context) (*models.Championship, error)
	Advance(ctx context.Context) (*models.Championship, error)
	Finalize(ctx context.Context, input FinalizeChampionshipInput) (*models.Championship, error)
	Reset(ctx context.Context) error
	Standings(ctx context.Context) ([]models.TeamStanding, error)
}

type championshipService struct {
	writer
	groupGenerator    brackets.BracketGenerator
	knockoutGenerator brackets.BracketGenerator
}

func NewChampionshipService(deps Deps, groupSchedule brackets.MatchDayStrategy) ChampionshipService {
	return &championshipService{
		writer:            newWriter(deps),
		groupGenerator:    brackets.NewRoundRobinGenerator(groupSchedule),
		knockoutGenerator: brackets.NewKnockoutGenerator(),
	}
}

// current loads the championship with the ids of its matches.
func (s *championshipService) current(ctx context.Context, exec repositories.SQLExecutor) (*models.Championship, []*models.Match, error) {
	c, err := s.Repos.Championships.GetCurrent(ctx, exec)
	if err != nil {
		return nil, nil, err
	}
	matches, err := s.Repos.Matches.ListByChampionship(ctx, exec, c.ID)
	if err != nil {
		return nil, nil, err
	}
	c.Matches = matchIDs(matches)
	return c, matches, nil
}

func matchIDs(matches []*models.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids
}

func (s *championshipService) Current(ctx context.Context) (*models.Championship, error) {
	c, _, err := s.current(ctx, nil)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return c, nil
}

func (s *championshipService) Create(ctx context.Context, input CreateChampionshipInput) (*models.Championship, error) {
	name := cleanName(input.Name)
	season := strings.TrimSpace(input.Season)
	if name == "" || season == "" {
		return nil, ErrChampionshipNameReq
	}
	maxTeams := input.MaxTeams
	if maxTeams == 0 {
		maxTeams = models.DefaultMaxTeams
	}
	if !models.IsAllowedMaxTeams(maxTeams) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxTeams, maxTeams)
	}
	schedule := input.ScheduleType
	if schedule == "" {
		schedule = models.ScheduleRandom
	}
	if schedule != models.ScheduleRandom && schedule != models.ScheduleManual {
		return nil, fmt.Errorf("%w: got '%s'", ErrInvalidScheduleType, schedule)
	}
	teamIDs := make([]string, 0, len(input.TeamIDs))
	for _, id := range input.TeamIDs {
		for _, seen := range teamIDs {
			if seen == id {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateTeamEntry, id)
			}
		}
		teamIDs = append(teamIDs, id)
	}
	if len(teamIDs) > maxTeams {
		return nil, fmt.Errorf("%w: %d teams for %d places", ErrChampionshipFull, len(teamIDs), maxTeams)
	}

	now := s.now()
	c := &models.Championship{
		ID:           s.NewID(),
		Name:         name,
		Season:       season,
		Status:       models.StatusSetup,
		Teams:        teamIDs,
		MaxTeams:     maxTeams,
		ScheduleType: schedule,
		CreatedAt:    now,
		UpdatedAt:    now,
		Matches:      []string{},
	}

	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		previous, err := s.Repos.Championships.GetCurrent(ctx, exec)
		switch {
		case errors.Is(err, repositories.ErrChampionshipNotFound):
		case err != nil:
			return err
		case previous.Status != models.StatusFinished:
			return fmt.Errorf("%w: '%s' is in status '%s'", ErrChampionshipExists, previous.Name, previous.Status)
		default:
			// Прошлый сезон остаётся только в истории чемпионов.
			if err := s.Repos.Matches.DeleteByChampionship(ctx, exec, previous.ID); err != nil {
				return err
			}
			if err := s.Repos.Championships.Delete(ctx, exec, previous.ID); err != nil {
				return err
			}
		}

		for _, id := range teamIDs {
			if _, err := s.Repos.Teams.GetByID(ctx, exec, id); err != nil {
				return fmt.Errorf("team %s: %w", id, err)
			}
		}
		return s.Repos.Championships.Create(ctx, exec, c)
	}, repositories.CollectionChampionships, repositories.CollectionMatches)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "championship created",
		slog.String("championship_id", c.ID), slog.String("season", c.Season), slog.Int("max_teams", c.MaxTeams))
	return c, nil
}

func (s *championshipService) AddTeam(ctx context.Context, teamID string) (*models.Championship, error) {
	return s.changeTeams(ctx, teamID, func(exec repositories.SQLExecutor, c *models.Championship) error {
		if c.HasTeam(teamID) {
			return ErrTeamAlreadyRegistered
		}
		if len(c.Teams) >= c.MaxTeams {
			return fmt.Errorf("%w: %d/%d", ErrChampionshipFull, len(c.Teams), c.MaxTeams)
		}
		if _, err := s.Repos.Teams.GetByID(ctx, exec, teamID); err != nil {
			return err
		}
		c.Teams = append(c.Teams, teamID)
		return nil
	})
}

func (s *championshipService) RemoveTeam(ctx context.Context, teamID string) (*models.Championship, error) {
	return s.changeTeams(ctx, teamID, func(_ repositories.SQLExecutor, c *models.Championship) error {
		if !c.HasTeam(teamID) {
			return ErrTeamNotRegistered
		}
		c.Teams = removeString(c.Teams, teamID)
		return nil
	})
}

func (s *championshipService) changeTeams(ctx context.Context, teamID string, change func(repositories.SQLExecutor, *models.Championship) error) (*models.Championship, error) {
	var result *models.Championship
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, _, err := s.current(ctx, exec)
		if err != nil {
			return err
		}
		if c.Status != models.StatusSetup {
			return fmt.Errorf("%w: status is '%s'", ErrRegistrationClosed, c.Status)
		}
		if err := change(exec, c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		if err := s.Repos.Championships.Update(ctx, exec, c); err != nil {
			return err
		}
		result = c
		return nil
	}, repositories.CollectionChampionships)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return result, nil
}

// Start opens the group phase: goals are zeroed, old matches dropped and, for
// a random schedule, the round robin generated.
func (s *championshipService) Start(ctx context.Context) (*models.Championship, error) {
	var result *models.Championship
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, err := s.Repos.Championships.GetCurrent(ctx, exec)
		if err != nil {
			return err
		}
		if err := checkTransition(c, models.StatusGroup); err != nil {
			return err
		}
		if len(c.Teams) != c.MaxTeams {
			return fmt.Errorf("%w: %d/%d", ErrChampionshipNotFull, len(c.Teams), c.MaxTeams)
		}

		if err := s.Repos.Players.ResetGoals(ctx, exec); err != nil {
			return fmt.Errorf("failed to reset goals: %w", err)
		}
		if err := s.Repos.Matches.DeleteByChampionship(ctx, exec, c.ID); err != nil {
			return fmt.Errorf("failed to discard old matches: %w", err)
		}

		now := s.now()
		created := []*models.Match{}
		if c.ScheduleType == models.ScheduleRandom {
			generated, err := s.groupGenerator.GenerateBracket(ctx, brackets.GenerateBracketParams{Teams: c.Teams, Start: now})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
			created, err = s.saveGenerated(ctx, exec, c.ID, generated, now)
			if err != nil {
				return err
			}
		}

		c.Status = models.StatusGroup
		c.UpdatedAt = now
		if err := s.Repos.Championships.Update(ctx, exec, c); err != nil {
			return err
		}
		c.Matches = matchIDs(created)
		result = c
		return nil
	}, repositories.CollectionChampionships, repositories.CollectionMatches, repositories.CollectionPlayers)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "group phase started",
		slog.String("championship_id", result.ID), slog.Int("matches", len(result.Matches)))
	return result, nil
}

// Advance closes the group phase and builds the knockout bracket from the top
// of the table.
func (s *championshipService) Advance(ctx context.Context) (*models.Championship, error) {
	var result *models.Championship
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, matches, err := s.current(ctx, exec)
		if err != nil {
			return err
		}
		if err := checkTransition(c, models.StatusKnockout); err != nil {
			return err
		}

		groupMatches, unplayed := 0, 0
		for _, m := range matches {
			if m.Stage != models.StageGroup {
				continue
			}
			groupMatches++
			if !m.Played {
				unplayed++
			}
		}
		if groupMatches == 0 {
			return ErrNoGroupMatches
		}
		if unplayed > 0 {
			return fmt.Errorf("%w: %d of %d unplayed", ErrGroupPhaseIncomplete, unplayed, groupMatches)
		}

		teams, err := s.championshipTeams(ctx, exec, c)
		if err != nil {
			return err
		}
		seeds, err := standings.Top(standings.Calculate(teams, matches), c.KnockoutSize())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}

		now := s.now()
		generated, err := s.knockoutGenerator.GenerateBracket(ctx, brackets.GenerateBracketParams{Teams: seeds, Start: now})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		created, err := s.saveGenerated(ctx, exec, c.ID, generated, now)
		if err != nil {
			return err
		}

		c.Status = models.StatusKnockout
		c.UpdatedAt = now
		if err := s.Repos.Championships.Update(ctx, exec, c); err != nil {
			return err
		}
		c.Matches = append(c.Matches, matchIDs(created)...)
		result = c
		return nil
	}, repositories.CollectionChampionships, repositories.CollectionMatches)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "knockout phase started", slog.String("championship_id", result.ID))
	return result, nil
}

func (s *championshipService) Finalize(ctx context.Context, input FinalizeChampionshipInput) (*models.Championship, error) {
	var result *models.Championship
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, _, err := s.current(ctx, exec)
		if err != nil {
			return err
		}
		if err := checkTransition(c, models.StatusFinished); err != nil {
			return err
		}
		if !c.HasTeam(input.WinnerID) {
			return fmt.Errorf("%w: %q", ErrWinnerNotInChampionship, input.WinnerID)
		}
		if _, err := s.Repos.Players.GetByID(ctx, exec, input.TopScorerID); err != nil {
			return fmt.Errorf("top scorer %q: %w", input.TopScorerID, err)
		}

		now := s.now()
		entry := &models.ChampionshipHistory{
			ID:              s.NewID(),
			Season:          c.Season,
			ChampionID:      input.WinnerID,
			TopScorerID:     input.TopScorerID,
			FinalHighlights: strings.TrimSpace(input.FinalHighlights),
			CreatedAt:       now,
		}
		if err := s.Repos.History.Create(ctx, exec, entry); err != nil {
			return err
		}

		winner := input.WinnerID
		c.WinnerID = &winner
		c.Status = models.StatusFinished
		c.UpdatedAt = now
		if err := s.Repos.Championships.Update(ctx, exec, c); err != nil {
			return err
		}
		result = c
		return nil
	}, repositories.CollectionChampionships, repositories.CollectionHistory)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "championship finished",
		slog.String("championship_id", result.ID), slog.String("winner_id", input.WinnerID))
	return result, nil
}

// Reset deletes the current championship and its matches in any status.
func (s *championshipService) Reset(ctx context.Context) error {
	var id string
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		c, err := s.Repos.Championships.GetCurrent(ctx, exec)
		if err != nil {
			return err
		}
		id = c.ID
		if err := s.Repos.Matches.DeleteByChampionship(ctx, exec, c.ID); err != nil {
			return err
		}
		return s.Repos.Championships.Delete(ctx, exec, c.ID)
	}, repositories.CollectionChampionships, repositories.CollectionMatches)
	if err != nil {
		return handleRepositoryError(err)
	}
	s.Logger.WarnContext(ctx, "championship reset", slog.String("championship_id", id))
	return nil
}

func (s *championshipService) Standings(ctx context.Context) ([]models.TeamStanding, error) {
	var (
		allTeams []*models.Team
		c        *models.Championship
		matches  []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allTeams, err = s.Repos.Teams.List(gCtx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		c, matches, err = s.current(gCtx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err)
	}

	return standings.Calculate(filterTeams(allTeams, c.Teams), matches), nil
}

func (s *championshipService) championshipTeams(ctx context.Context, exec repositories.SQLExecutor, c *models.Championship) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(c.Teams))
	for _, id := range c.Teams {
		t, err := s.Repos.Teams.GetByID(ctx, exec, id)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", id, err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func filterTeams(all []*models.Team, ids []string) []*models.Team {
	byID := make(map[string]*models.Team, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	teams := make([]*models.Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			teams = append(teams, t)
		}
	}
	return teams
}

// saveGenerated stores generated fixtures in two passes: ids first, then the
// source match links expressed with those ids.
func (s *championshipService) saveGenerated(ctx context.Context, exec repositories.SQLExecutor, championshipID string, generated []*brackets.BracketMatch, now time.Time) ([]*models.Match, error) {
	idByUID := make(map[string]string, len(generated))
	for _, bm := range generated {
		idByUID[bm.UID] = s.NewID()
	}
	source := func(uid *string) *string {
		if uid == nil {
			return nil
		}
		id := idByUID[*uid]
		return &id
	}

	created := make([]*models.Match, 0, len(generated))
	for _, bm := range generated {
		m := &models.Match{
			ID:                idByUID[bm.UID],
			ChampionshipID:    championshipID,
			HomeTeamID:        bm.Participant1ID,
			AwayTeamID:        bm.Participant2ID,
			HomeSourceMatchID: source(bm.SourceMatch1UID),
			AwaySourceMatchID: source(bm.SourceMatch2UID),
			Date:              bm.Date,
			Stage:             bm.Stage,
			MatchDay:          bm.MatchDay,
			Scorers:           []models.GoalScorer{},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.Repos.Matches.Create(ctx, exec, m); err != nil {
			return nil, fmt.Errorf("failed to save match %s: %w", bm.UID, err)
		}
		created = append(created, m)
	}
	return created, nil
}
