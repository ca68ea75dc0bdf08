package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/fjj-brasileirao/models"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerFilter narrows List. Zero value lists everyone.
type PlayerFilter struct {
	TeamID     *string
	FreeAgents bool
}

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Player, error)
	List(ctx context.Context, exec SQLExecutor, filter PlayerFilter) ([]*models.Player, error)
	TopScorers(ctx context.Context, exec SQLExecutor, limit int) ([]*models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	SetTeam(ctx context.Context, exec SQLExecutor, id string, teamID *string) error
	AddGoals(ctx context.Context, exec SQLExecutor, id string, delta int) error
	ResetGoals(ctx context.Context, exec SQLExecutor) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	ReplaceAll(ctx context.Context, exec SQLExecutor, players []*models.Player) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, name, image_url, team_id, goals, created_at, updated_at`

func scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	var teamID sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.ImageURL, &teamID, &p.Goals, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	p.TeamID = stringPtr(teamID)
	return &p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `INSERT INTO players (` + playerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		player.ID, player.Name, player.ImageURL, nullString(player.TeamID), player.Goals,
		player.CreatedAt, player.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) List(ctx context.Context, exec SQLExecutor, filter PlayerFilter) ([]*models.Player, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", len(args)))
	}
	if filter.FreeAgents {
		conditions = append(conditions, "team_id IS NULL")
	}

	query := `SELECT ` + playerColumns + ` FROM players`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	return r.query(ctx, exec, query, args...)
}

func (r *postgresPlayerRepository) TopScorers(ctx context.Context, exec SQLExecutor, limit int) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE goals > 0 ORDER BY goals DESC, name ASC, id ASC LIMIT $1`
	return r.query(ctx, exec, query, limit)
}

func (r *postgresPlayerRepository) query(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `UPDATE players SET name = $1, image_url = $2, updated_at = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, player.Name, player.ImageURL, player.UpdatedAt, player.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) SetTeam(ctx context.Context, exec SQLExecutor, id string, teamID *string) error {
	query := `UPDATE players SET team_id = $1, updated_at = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, nullString(teamID), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// AddGoals применяет дельту, счётчик не опускается ниже нуля.
func (r *postgresPlayerRepository) AddGoals(ctx context.Context, exec SQLExecutor, id string, delta int) error {
	query := `UPDATE players SET goals = GREATEST(goals + $1, 0), updated_at = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ResetGoals(ctx context.Context, exec SQLExecutor) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE players SET goals = 0, updated_at = $1 WHERE goals <> 0`, time.Now().UTC())
	return err
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, players []*models.Player) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("failed to clear players: %w", err)
	}
	for _, p := range players {
		if err := r.Create(ctx, executor, p); err != nil {
			return err
		}
	}
	return nil
}
