package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	"github.com/gosimple/slug"
)

type CreateTeamInput struct {
	Name          string `json:"name"`
	LogoURL       string `json:"logo_url"`
	BackgroundURL string `json:"background_url"`
}

type UpdateTeamInput struct {
	Name          *string `json:"name"`
	LogoURL       *string `json:"logo_url"`
	BackgroundURL *string `json:"background_url"`
}

type TeamService interface {
	Create(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	Update(ctx context.Context, id string, input UpdateTeamInput) (*models.Team, error)
	Delete(ctx context.Context, id string) error
}

type teamService struct {
	writer
}

func NewTeamService(deps Deps) TeamService {
	return &teamService{writer: newWriter(deps)}
}

// teamSlug - ключ уникальности имени: "São Paulo" и "Sao Paulo" совпадают.
func teamSlug(name string) (string, string, error) {
	name = cleanName(name)
	if name == "" {
		return "", "", ErrTeamNameRequired
	}
	s := slug.Make(name)
	if s == "" {
		return "", "", fmt.Errorf("%w: name %q has no letters or digits", ErrTeamNameRequired, name)
	}
	return name, s, nil
}

func (s *teamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name, teamSlugValue, err := teamSlug(input.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	team := &models.Team{
		ID:             s.NewID(),
		Name:           name,
		Slug:           teamSlugValue,
		LogoURL:        strings.TrimSpace(input.LogoURL),
		BackgroundURL:  strings.TrimSpace(input.BackgroundURL),
		FjjdotyBalance: models.StartingBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
		Players:        []string{},
	}

	err = s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		return s.Repos.Teams.Create(ctx, exec, team)
	}, repositories.CollectionTeams)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "team created", slog.String("team_id", team.ID), slog.String("name", team.Name))
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.Repos.Teams.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.Repos.Teams.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) Update(ctx context.Context, id string, input UpdateTeamInput) (*models.Team, error) {
	var updated *models.Team
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.Repos.Teams.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name, teamSlugValue, err := teamSlug(*input.Name)
			if err != nil {
				return err
			}
			team.Name, team.Slug = name, teamSlugValue
		}
		if input.LogoURL != nil {
			team.LogoURL = strings.TrimSpace(*input.LogoURL)
		}
		if input.BackgroundURL != nil {
			team.BackgroundURL = strings.TrimSpace(*input.BackgroundURL)
		}
		team.UpdatedAt = s.now()
		if err := s.Repos.Teams.Update(ctx, exec, team); err != nil {
			return err
		}
		updated = team
		return nil
	}, repositories.CollectionTeams)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return updated, nil
}

// Delete removes a team with an empty roster while no championship is under
// way. A team registered in a championship still in setup is unregistered.
func (s *teamService) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		team, err := s.Repos.Teams.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if len(team.Players) > 0 {
			return fmt.Errorf("%w: %d players", ErrTeamHasPlayers, len(team.Players))
		}

		current, err := s.Repos.Championships.GetCurrent(ctx, exec)
		switch {
		case errors.Is(err, repositories.ErrChampionshipNotFound):
			current = nil
		case err != nil:
			return err
		}
		if current != nil {
			if current.Status != models.StatusSetup {
				return fmt.Errorf("%w: championship is '%s'", ErrTeamLocked, current.Status)
			}
			if current.HasTeam(id) {
				current.Teams = removeString(current.Teams, id)
				current.UpdatedAt = s.now()
				if err := s.Repos.Championships.Update(ctx, exec, current); err != nil {
					return err
				}
			}
		}
		return s.Repos.Teams.Delete(ctx, exec, id)
	}, repositories.CollectionTeams, repositories.CollectionChampionships)
	if err != nil {
		return handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "team deleted", slog.String("team_id", id))
	return nil
}
