package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/lib/pq"
)

var ErrChampionshipNotFound = errors.New("championship not found")

type ChampionshipRepository interface {
	Create(ctx context.Context, exec SQLExecutor, c *models.Championship) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Championship, error)
	// GetCurrent returns the most recently created championship.
	GetCurrent(ctx context.Context, exec SQLExecutor) (*models.Championship, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Championship, error)
	Update(ctx context.Context, exec SQLExecutor, c *models.Championship) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	ReplaceAll(ctx context.Context, exec SQLExecutor, list []*models.Championship) error
}

type postgresChampionshipRepository struct {
	db *sql.DB
}

func NewPostgresChampionshipRepository(db *sql.DB) ChampionshipRepository {
	return &postgresChampionshipRepository{db: db}
}

func (r *postgresChampionshipRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const championshipColumns = `id, name, season, status, team_ids, winner_id, max_teams, schedule_type, created_at, updated_at`

func scanChampionship(row rowScanner) (*models.Championship, error) {
	var (
		c        models.Championship
		winnerID sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Season, &c.Status, pq.Array(&c.Teams), &winnerID,
		&c.MaxTeams, &c.ScheduleType, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChampionshipNotFound
		}
		return nil, fmt.Errorf("failed to scan championship: %w", err)
	}
	if c.Teams == nil {
		c.Teams = []string{}
	}
	c.WinnerID = stringPtr(winnerID)
	return &c, nil
}

func (r *postgresChampionshipRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Championship) error {
	query := `INSERT INTO championships (` + championshipColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	teams := c.Teams
	if teams == nil {
		teams = []string{}
	}
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		c.ID, c.Name, c.Season, c.Status, pq.Array(teams), nullString(c.WinnerID),
		c.MaxTeams, c.ScheduleType, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create championship: %w", err)
	}
	return nil
}

func (r *postgresChampionshipRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Championship, error) {
	query := `SELECT ` + championshipColumns + ` FROM championships WHERE id = $1`
	return scanChampionship(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresChampionshipRepository) GetCurrent(ctx context.Context, exec SQLExecutor) (*models.Championship, error) {
	query := `SELECT ` + championshipColumns + ` FROM championships ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanChampionship(r.getExecutor(exec).QueryRowContext(ctx, query))
}

func (r *postgresChampionshipRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Championship, error) {
	query := `SELECT ` + championshipColumns + ` FROM championships ORDER BY created_at ASC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list championships: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Championship, 0)
	for rows.Next() {
		c, err := scanChampionship(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *postgresChampionshipRepository) Update(ctx context.Context, exec SQLExecutor, c *models.Championship) error {
	query := `
		UPDATE championships SET
			name = $1, season = $2, status = $3, team_ids = $4, winner_id = $5,
			max_teams = $6, schedule_type = $7, updated_at = $8
		WHERE id = $9`
	teams := c.Teams
	if teams == nil {
		teams = []string{}
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		c.Name, c.Season, c.Status, pq.Array(teams), nullString(c.WinnerID),
		c.MaxTeams, c.ScheduleType, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update championship %s: %w", c.ID, err)
	}
	return checkAffectedRows(result, ErrChampionshipNotFound)
}

func (r *postgresChampionshipRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM championships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrChampionshipNotFound)
}

func (r *postgresChampionshipRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, list []*models.Championship) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM championships`); err != nil {
		return fmt.Errorf("failed to clear championships: %w", err)
	}
	for _, c := range list {
		if err := r.Create(ctx, executor, c); err != nil {
			return err
		}
	}
	return nil
}
