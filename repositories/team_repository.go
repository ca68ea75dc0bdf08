package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already exists")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Team, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	AdjustBalance(ctx context.Context, exec SQLExecutor, id string, delta int64) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	ReplaceAll(ctx context.Context, exec SQLExecutor, teams []*models.Team) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Состав команды собирается из players.team_id.
const teamSelect = `
	SELECT t.id, t.name, t.slug, t.logo_url, t.background_url, t.fjjdoty_balance, t.created_at, t.updated_at,
	       COALESCE(array_agg(p.id ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}') AS players
	FROM teams t
	LEFT JOIN players p ON p.team_id = t.id`

func (r *postgresTeamRepository) scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.LogoURL, &t.BackgroundURL, &t.FjjdotyBalance,
		&t.CreatedAt, &t.UpdatedAt, pq.Array(&t.Players))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (id, name, slug, logo_url, background_url, fjjdoty_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		team.ID, team.Name, team.Slug, team.LogoURL, team.BackgroundURL, team.FjjdotyBalance,
		team.CreatedAt, team.UpdatedAt,
	)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Team, error) {
	query := teamSelect + ` WHERE t.id = $1 GROUP BY t.id`
	return r.scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Team, error) {
	query := teamSelect + ` GROUP BY t.id ORDER BY t.name ASC, t.id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		t, err := r.scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		UPDATE teams SET name = $1, slug = $2, logo_url = $3, background_url = $4, updated_at = $5
		WHERE id = $6`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		team.Name, team.Slug, team.LogoURL, team.BackgroundURL, team.UpdatedAt, team.ID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AdjustBalance(ctx context.Context, exec SQLExecutor, id string, delta int64) error {
	query := `UPDATE teams SET fjjdoty_balance = fjjdoty_balance + $1, updated_at = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to adjust balance of team %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, teams []*models.Team) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM teams`); err != nil {
		return fmt.Errorf("failed to clear teams: %w", err)
	}
	for _, t := range teams {
		if err := r.Create(ctx, executor, t); err != nil {
			return fmt.Errorf("failed to restore team %s: %w", t.ID, err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint := pqErrorCode(err); code == pqUniqueViolation && constraint == "teams_slug_key" {
		return ErrTeamNameConflict
	}
	return err
}
