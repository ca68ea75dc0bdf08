package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Без внешних ключей: синхронизация заменяет таблицы целиком в любом порядке.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		slug            TEXT NOT NULL,
		logo_url        TEXT NOT NULL DEFAULT '',
		background_url  TEXT NOT NULL DEFAULT '',
		fjjdoty_balance BIGINT NOT NULL DEFAULT 50000,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT teams_slug_key UNIQUE (slug)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		image_url  TEXT NOT NULL DEFAULT '',
		team_id    TEXT,
		goals      INTEGER NOT NULL DEFAULT 0 CHECK (goals >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS players_team_id_idx ON players (team_id)`,
	`CREATE TABLE IF NOT EXISTS championships (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		season        TEXT NOT NULL,
		status        TEXT NOT NULL,
		team_ids      TEXT[] NOT NULL DEFAULT '{}',
		winner_id     TEXT,
		max_teams     INTEGER NOT NULL DEFAULT 6,
		schedule_type TEXT NOT NULL DEFAULT 'random',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                   TEXT PRIMARY KEY,
		championship_id      TEXT NOT NULL,
		home_team_id         TEXT,
		away_team_id         TEXT,
		home_source_match_id TEXT,
		away_source_match_id TEXT,
		match_date           TIMESTAMPTZ NOT NULL,
		home_score           INTEGER CHECK (home_score >= 0),
		away_score           INTEGER CHECK (away_score >= 0),
		played               BOOLEAN NOT NULL DEFAULT FALSE,
		stage                TEXT NOT NULL,
		match_day            INTEGER NOT NULL DEFAULT 1,
		scorers              JSONB NOT NULL DEFAULT '[]',
		penalty_winner_id    TEXT,
		is_manual            BOOLEAN NOT NULL DEFAULT FALSE,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT matches_played_scores_check CHECK (
			NOT played OR (home_score IS NOT NULL AND away_score IS NOT NULL)
		),
		CONSTRAINT matches_distinct_teams_check CHECK (
			home_team_id IS NULL OR away_team_id IS NULL OR home_team_id <> away_team_id
		)
	)`,
	`CREATE INDEX IF NOT EXISTS matches_championship_id_idx ON matches (championship_id)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id            TEXT PRIMARY KEY,
		player_id     TEXT NOT NULL,
		from_team_id  TEXT,
		to_team_id    TEXT NOT NULL,
		amount        BIGINT NOT NULL CHECK (amount >= 0),
		transfer_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS championship_history (
		id               TEXT PRIMARY KEY,
		season           TEXT NOT NULL,
		champion_id      TEXT NOT NULL,
		top_scorer_id    TEXT NOT NULL,
		final_highlights TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates missing tables. Safe to run on every start.
func Migrate(ctx context.Context, conn *sql.DB) error {
	for i, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
