package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
)

const DefaultTopScorersLimit = 10

type CreatePlayerInput struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"image_url"`
	TeamID   *string `json:"team_id"`
}

type UpdatePlayerInput struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"image_url"`
}

type PlayerService interface {
	Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetByID(ctx context.Context, id string) (*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	ListByTeam(ctx context.Context, teamID string) ([]*models.Player, error)
	FreeAgents(ctx context.Context) ([]*models.Player, error)
	TopScorers(ctx context.Context, limit int) ([]*models.Player, error)
	Update(ctx context.Context, id string, input UpdatePlayerInput) (*models.Player, error)
	Delete(ctx context.Context, id string) error
}

type playerService struct {
	writer
}

func NewPlayerService(deps Deps) PlayerService {
	return &playerService{writer: newWriter(deps)}
}

func (s *playerService) Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	name := cleanName(input.Name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	now := s.now()
	player := &models.Player{
		ID:        s.NewID(),
		Name:      name,
		ImageURL:  strings.TrimSpace(input.ImageURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		if input.TeamID != nil && *input.TeamID != "" {
			if _, err := s.Repos.Teams.GetByID(ctx, exec, *input.TeamID); err != nil {
				return err
			}
			teamID := *input.TeamID
			player.TeamID = &teamID
		}
		return s.Repos.Players.Create(ctx, exec, player)
	}, repositories.CollectionPlayers, repositories.CollectionTeams)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "player created",
		slog.String("player_id", player.ID), slog.String("team_id", derefString(player.TeamID)))
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id string) (*models.Player, error) {
	player, err := s.Repos.Players.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	players, err := s.Repos.Players.List(ctx, nil, repositories.PlayerFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *playerService) ListByTeam(ctx context.Context, teamID string) ([]*models.Player, error) {
	if _, err := s.Repos.Teams.GetByID(ctx, nil, teamID); err != nil {
		return nil, handleRepositoryError(err)
	}
	players, err := s.Repos.Players.List(ctx, nil, repositories.PlayerFilter{TeamID: &teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to list players of team %s: %w", teamID, err)
	}
	return players, nil
}

func (s *playerService) FreeAgents(ctx context.Context) ([]*models.Player, error) {
	players, err := s.Repos.Players.List(ctx, nil, repositories.PlayerFilter{FreeAgents: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list free agents: %w", err)
	}
	return players, nil
}

// TopScorers - игроки с голами, по убыванию голов, при равенстве по имени.
func (s *playerService) TopScorers(ctx context.Context, limit int) ([]*models.Player, error) {
	if limit == 0 {
		limit = DefaultTopScorersLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	players, err := s.Repos.Players.TopScorers(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top scorers: %w", err)
	}
	return players, nil
}

func (s *playerService) Update(ctx context.Context, id string, input UpdatePlayerInput) (*models.Player, error) {
	var updated *models.Player
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		player, err := s.Repos.Players.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := cleanName(*input.Name)
			if name == "" {
				return ErrPlayerNameRequired
			}
			player.Name = name
		}
		if input.ImageURL != nil {
			player.ImageURL = strings.TrimSpace(*input.ImageURL)
		}
		player.UpdatedAt = s.now()
		if err := s.Repos.Players.Update(ctx, exec, player); err != nil {
			return err
		}
		updated = player
		return nil
	}, repositories.CollectionPlayers)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return updated, nil
}

// Delete removes a free agent. Players on a roster leave it through a transfer first.
func (s *playerService) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		player, err := s.Repos.Players.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if !player.IsFreeAgent() {
			return fmt.Errorf("%w: on team %s", ErrPlayerOnTeam, *player.TeamID)
		}
		return s.Repos.Players.Delete(ctx, exec, id)
	}, repositories.CollectionPlayers)
	if err != nil {
		return handleRepositoryError(err)
	}
	s.Logger.InfoContext(ctx, "player deleted", slog.String("player_id", id))
	return nil
}
