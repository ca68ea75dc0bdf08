package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchInvalid  = errors.New("match violates table constraints")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	ListByChampionship(ctx context.Context, exec SQLExecutor, championshipID string) ([]*models.Match, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	DeleteByChampionship(ctx context.Context, exec SQLExecutor, championshipID string) error
	ReplaceAll(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, championship_id, home_team_id, away_team_id, home_source_match_id, away_source_match_id,
	       match_date, home_score, away_score, played, stage, match_day, scorers, penalty_winner_id,
	       is_manual, created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m                      models.Match
		homeTeam, awayTeam     sql.NullString
		homeSource, awaySource sql.NullString
		homeScore, awayScore   sql.NullInt64
		penaltyWinner          sql.NullString
		scorers                []byte
	)
	err := row.Scan(
		&m.ID,
		&m.ChampionshipID,
		&homeTeam,
		&awayTeam,
		&homeSource,
		&awaySource,
		&m.Date,
		&homeScore,
		&awayScore,
		&m.Played,
		&m.Stage,
		&m.MatchDay,
		&scorers,
		&penaltyWinner,
		&m.IsManual,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	m.HomeTeamID, m.AwayTeamID = stringPtr(homeTeam), stringPtr(awayTeam)
	m.HomeSourceMatchID, m.AwaySourceMatchID = stringPtr(homeSource), stringPtr(awaySource)
	m.HomeScore, m.AwayScore = intPtr(homeScore), intPtr(awayScore)
	m.PenaltyWinnerID = stringPtr(penaltyWinner)

	m.Scorers = make([]models.GoalScorer, 0)
	if len(scorers) > 0 {
		if err := json.Unmarshal(scorers, &m.Scorers); err != nil {
			return nil, fmt.Errorf("failed to decode scorers of match %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func encodeScorers(scorers []models.GoalScorer) ([]byte, error) {
	if scorers == nil {
		scorers = []models.GoalScorer{}
	}
	return json.Marshal(scorers)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	scorers, err := encodeScorers(match.Scorers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.getExecutor(exec).ExecContext(ctx, query,
		match.ID,
		match.ChampionshipID,
		nullString(match.HomeTeamID),
		nullString(match.AwayTeamID),
		nullString(match.HomeSourceMatchID),
		nullString(match.AwaySourceMatchID),
		match.Date,
		nullInt(match.HomeScore),
		nullInt(match.AwayScore),
		match.Played,
		match.Stage,
		match.MatchDay,
		scorers,
		nullString(match.PenaltyWinnerID),
		match.IsManual,
		match.CreatedAt,
		match.UpdatedAt,
	)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByChampionship(ctx context.Context, exec SQLExecutor, championshipID string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE championship_id = $1 ORDER BY match_day ASC, match_date ASC, id ASC`
	return r.query(ctx, exec, query, championshipID)
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY match_date ASC, id ASC`
	return r.query(ctx, exec, query)
}

func (r *postgresMatchRepository) query(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during matches rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	scorers, err := encodeScorers(match.Scorers)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches SET
			home_team_id = $1, away_team_id = $2, home_source_match_id = $3, away_source_match_id = $4,
			match_date = $5, home_score = $6, away_score = $7, played = $8, stage = $9, match_day = $10,
			scorers = $11, penalty_winner_id = $12, is_manual = $13, updated_at = $14
		WHERE id = $15`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		nullString(match.HomeTeamID),
		nullString(match.AwayTeamID),
		nullString(match.HomeSourceMatchID),
		nullString(match.AwaySourceMatchID),
		match.Date,
		nullInt(match.HomeScore),
		nullInt(match.AwayScore),
		match.Played,
		match.Stage,
		match.MatchDay,
		scorers,
		nullString(match.PenaltyWinnerID),
		match.IsManual,
		match.UpdatedAt,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByChampionship(ctx context.Context, exec SQLExecutor, championshipID string) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE championship_id = $1`, championshipID)
	return err
}

func (r *postgresMatchRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}
	for _, m := range matches {
		if err := r.Create(ctx, executor, m); err != nil {
			return fmt.Errorf("failed to restore match %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint := pqErrorCode(err); code == pqCheckViolation {
		return fmt.Errorf("%w: %s", ErrMatchInvalid, constraint)
	}
	return err
}
