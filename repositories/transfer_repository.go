package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
)

// TransferRepository - журнал только на добавление.
type TransferRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Transfer) error
	// List returns newest first. A non-nil teamID keeps transfers touching that team.
	List(ctx context.Context, exec SQLExecutor, teamID *string) ([]*models.Transfer, error)
	ReplaceAll(ctx context.Context, exec SQLExecutor, list []*models.Transfer) error
}

type postgresTransferRepository struct {
	db *sql.DB
}

func NewPostgresTransferRepository(db *sql.DB) TransferRepository {
	return &postgresTransferRepository{db: db}
}

func (r *postgresTransferRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTransferRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Transfer) error {
	query := `
		INSERT INTO transfers (id, player_id, from_team_id, to_team_id, amount, transfer_date)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		t.ID, t.PlayerID, nullString(t.FromTeamID), t.ToTeamID, t.Amount, t.Date)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

func (r *postgresTransferRepository) List(ctx context.Context, exec SQLExecutor, teamID *string) ([]*models.Transfer, error) {
	query := `SELECT id, player_id, from_team_id, to_team_id, amount, transfer_date FROM transfers`
	var args []interface{}
	if teamID != nil {
		query += ` WHERE from_team_id = $1 OR to_team_id = $1`
		args = append(args, *teamID)
	}
	query += ` ORDER BY transfer_date DESC, id DESC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Transfer, 0)
	for rows.Next() {
		var (
			t    models.Transfer
			from sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.PlayerID, &from, &t.ToTeamID, &t.Amount, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.FromTeamID = stringPtr(from)
		list = append(list, &t)
	}
	return list, rows.Err()
}

func (r *postgresTransferRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, list []*models.Transfer) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM transfers`); err != nil {
		return fmt.Errorf("failed to clear transfers: %w", err)
	}
	for _, t := range list {
		if err := r.Create(ctx, executor, t); err != nil {
			return err
		}
	}
	return nil
}
