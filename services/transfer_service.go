package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/fjj-brasileirao/ledger"
	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
)

type SignExternalInput struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	ToTeamID string `json:"to_team_id"`
	Amount   int64  `json:"amount"`
}

type TransferService interface {
	Transfer(ctx context.Context, req ledger.TransferRequest) (*models.Transfer, error)
	// SignExternal creates a free agent and signs them in one step.
	SignExternal(ctx context.Context, input SignExternalInput) (*models.Transfer, *models.Player, error)
	List(ctx context.Context, teamID *string) ([]*models.Transfer, error)
}

type transferService struct {
	writer
}

func NewTransferService(deps Deps) TransferService {
	return &transferService{writer: newWriter(deps)}
}

var transferCollections = []string{
	repositories.CollectionTransfers,
	repositories.CollectionTeams,
	repositories.CollectionPlayers,
}

func (s *transferService) Transfer(ctx context.Context, req ledger.TransferRequest) (*models.Transfer, error) {
	var record *models.Transfer
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		record, err = s.execute(ctx, exec, req)
		return err
	}, transferCollections...)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "transfer recorded",
		slog.String("transfer_id", record.ID),
		slog.String("player_id", record.PlayerID),
		slog.String("from_team_id", derefString(record.FromTeamID)),
		slog.String("to_team_id", record.ToTeamID),
		slog.Int64("amount", record.Amount))
	return record, nil
}

func (s *transferService) SignExternal(ctx context.Context, input SignExternalInput) (*models.Transfer, *models.Player, error) {
	name := cleanName(input.Name)
	if name == "" {
		return nil, nil, ErrPlayerNameRequired
	}
	if input.Amount < 0 {
		return nil, nil, fmt.Errorf("%w: %d", ledger.ErrInvalidAmount, input.Amount)
	}

	var (
		record *models.Transfer
		player *models.Player
	)
	err := s.mutate(ctx, func(exec repositories.SQLExecutor) error {
		now := s.now()
		player = &models.Player{
			ID:        s.NewID(),
			Name:      name,
			ImageURL:  strings.TrimSpace(input.ImageURL),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Repos.Players.Create(ctx, exec, player); err != nil {
			return err
		}
		var err error
		record, err = s.execute(ctx, exec, ledger.TransferRequest{
			PlayerID: player.ID,
			ToTeamID: input.ToTeamID,
			Amount:   input.Amount,
		})
		if err != nil {
			return err
		}
		toTeam := input.ToTeamID
		player.TeamID = &toTeam
		return nil
	}, transferCollections...)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}

	s.Logger.InfoContext(ctx, "external signing recorded",
		slog.String("player_id", player.ID), slog.String("to_team_id", input.ToTeamID), slog.Int64("amount", input.Amount))
	return record, player, nil
}

// execute validates the move against current snapshots and applies it inside exec.
func (s *transferService) execute(ctx context.Context, exec repositories.SQLExecutor, req ledger.TransferRequest) (*models.Transfer, error) {
	player, err := s.Repos.Players.GetByID(ctx, exec, req.PlayerID)
	if err != nil {
		return nil, err
	}
	to, err := s.Repos.Teams.GetByID(ctx, exec, req.ToTeamID)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	var from *models.Team
	if req.FromTeamID != nil {
		from, err = s.Repos.Teams.GetByID(ctx, exec, *req.FromTeamID)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
	}

	plan, err := ledger.PlanTransfer(player, from, to, req.Amount, s.NewID(), s.now())
	if err != nil {
		return nil, err
	}

	if err := s.Repos.Teams.AdjustBalance(ctx, exec, plan.To.ID, -req.Amount); err != nil {
		return nil, err
	}
	if plan.From != nil {
		if err := s.Repos.Teams.AdjustBalance(ctx, exec, plan.From.ID, req.Amount); err != nil {
			return nil, err
		}
	}
	if err := s.Repos.Players.SetTeam(ctx, exec, plan.Player.ID, plan.Player.TeamID); err != nil {
		return nil, err
	}
	if err := s.Repos.Transfers.Create(ctx, exec, plan.Record); err != nil {
		return nil, err
	}
	return plan.Record, nil
}

func (s *transferService) List(ctx context.Context, teamID *string) ([]*models.Transfer, error) {
	if teamID != nil {
		if _, err := s.Repos.Teams.GetByID(ctx, nil, *teamID); err != nil {
			return nil, handleRepositoryError(err)
		}
	}
	transfers, err := s.Repos.Transfers.List(ctx, nil, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}
