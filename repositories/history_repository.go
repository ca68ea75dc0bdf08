package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
)

type HistoryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, h *models.ChampionshipHistory) error
	List(ctx context.Context, exec SQLExecutor) ([]*models.ChampionshipHistory, error)
	ReplaceAll(ctx context.Context, exec SQLExecutor, list []*models.ChampionshipHistory) error
}

type postgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (r *postgresHistoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresHistoryRepository) Create(ctx context.Context, exec SQLExecutor, h *models.ChampionshipHistory) error {
	query := `
		INSERT INTO championship_history (id, season, champion_id, top_scorer_id, final_highlights, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		h.ID, h.Season, h.ChampionID, h.TopScorerID, h.FinalHighlights, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *postgresHistoryRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.ChampionshipHistory, error) {
	query := `
		SELECT id, season, champion_id, top_scorer_id, final_highlights, created_at
		FROM championship_history ORDER BY created_at DESC, id DESC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	list := make([]*models.ChampionshipHistory, 0)
	for rows.Next() {
		var h models.ChampionshipHistory
		if err := rows.Scan(&h.ID, &h.Season, &h.ChampionID, &h.TopScorerID, &h.FinalHighlights, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

func (r *postgresHistoryRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, list []*models.ChampionshipHistory) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM championship_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	for _, h := range list {
		if err := r.Create(ctx, executor, h); err != nil {
			return err
		}
	}
	return nil
}
