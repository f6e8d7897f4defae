package repository

import (
	"context"
	"fmt"

	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

const schema = `
	CREATE TABLE IF NOT EXISTS matches (
		id          SERIAL PRIMARY KEY,
		home_team   TEXT NOT NULL,
		away_team   TEXT NOT NULL,
		league      TEXT NOT NULL,
		season      INTEGER NOT NULL,
		match_date  DATE,
		home_score  INTEGER,
		away_score  INTEGER,
		home_xg     DOUBLE PRECISION,
		away_xg     DOUBLE PRECISION,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (league, season, home_team, away_team)
	);
	CREATE INDEX IF NOT EXISTS idx_matches_season_league ON matches (season, league);
`

const upsertMatch = `
	INSERT INTO matches (
		home_team, away_team, league, season, match_date,
		home_score, away_score, home_xg, away_xg
	) VALUES ($1, $2, $3, $4, NULLIF($5, '')::date, $6, $7, $8, $9)
	ON CONFLICT (league, season, home_team, away_team) DO UPDATE SET
		match_date = EXCLUDED.match_date,
		home_score = EXCLUDED.home_score,
		away_score = EXCLUDED.away_score,
		home_xg = EXCLUDED.home_xg,
		away_xg = EXCLUDED.away_xg,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
`

const selectMatches = `
	SELECT id, home_team, away_team, league, season,
		COALESCE(to_char(match_date, 'YYYY-MM-DD'), ''),
		home_score, away_score, home_xg, away_xg, created_at, updated_at
	FROM matches
`

// MatchRepository handles match database operations
type MatchRepository struct {
	db *Database
}

// EnsureSchema creates the matches table if it does not exist
func (r *MatchRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		metrics.RecordDBQuery("ensure_schema", "error")
		return fmt.Errorf("failed to create matches schema: %w", err)
	}
	metrics.RecordDBQuery("ensure_schema", "success")
	return nil
}

// Upsert inserts or updates a match; a rescraped fixture picks up its result
func (r *MatchRepository) Upsert(ctx context.Context, m *models.MatchRecord) error {
	err := r.db.Pool.QueryRow(ctx, upsertMatch, upsertArgs(m)...).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		metrics.RecordDBQuery("upsert", "error")
		return fmt.Errorf("failed to upsert match %s v %s: %w", m.HomeTeam, m.AwayTeam, err)
	}
	metrics.RecordDBQuery("upsert", "success")
	return nil
}

// UpsertBatch upserts all matches in one transaction
func (r *MatchRepository) UpsertBatch(ctx context.Context, matches []models.MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range matches {
		batch.Queue(upsertMatch, upsertArgs(&matches[i])...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range matches {
		m := &matches[i]
		if err := br.QueryRow().Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			br.Close()
			metrics.RecordDBQuery("upsert_batch", "error")
			return fmt.Errorf("failed to upsert match %s v %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
	}
	if err := br.Close(); err != nil {
		metrics.RecordDBQuery("upsert_batch", "error")
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordDBQuery("upsert_batch", "error")
		return fmt.Errorf("failed to commit matches: %w", err)
	}

	metrics.RecordDBQuery("upsert_batch", "success")
	r.db.logger.Debug().Int("count", len(matches)).Msg("Matches upserted")
	return nil
}

// ListBySeasons returns matches for the given seasons and leagues in
// season, league, date order. Empty filters match everything.
func (r *MatchRepository) ListBySeasons(ctx context.Context, seasons []int, leagues []models.League) ([]models.MatchRecord, error) {
	// nil would bind as NULL and match nothing
	seasonArgs := append([]int{}, seasons...)
	leagueNames := make([]string, len(leagues))
	for i, l := range leagues {
		leagueNames[i] = string(l)
	}

	query := selectMatches + `
		WHERE (cardinality($1::int[]) = 0 OR season = ANY($1))
		  AND (cardinality($2::text[]) = 0 OR league = ANY($2))
		ORDER BY season, league, match_date NULLS LAST, id
	`

	rows, err := r.db.Pool.Query(ctx, query, seasonArgs, leagueNames)
	if err != nil {
		metrics.RecordDBQuery("list", "error")
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []models.MatchRecord
	for rows.Next() {
		var (
			m      models.MatchRecord
			league string
		)
		err := rows.Scan(
			&m.ID, &m.HomeTeam, &m.AwayTeam, &league, &m.Season, &m.Date,
			&m.HomeGoals, &m.AwayGoals, &m.HomeXG, &m.AwayXG,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			metrics.RecordDBQuery("list", "error")
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.League = models.League(league)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("list", "error")
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	metrics.RecordDBQuery("list", "success")
	return matches, nil
}

// Count returns the number of stored matches
func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		metrics.RecordDBQuery("count", "error")
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	metrics.RecordDBQuery("count", "success")
	metrics.UpdateMatchesStored(n)
	return n, nil
}

func upsertArgs(m *models.MatchRecord) []any {
	return []any{
		m.HomeTeam, m.AwayTeam, string(m.League), m.Season, m.Date,
		m.HomeGoals, m.AwayGoals, m.HomeXG, m.AwayXG,
	}
}
