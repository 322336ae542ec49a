// Package ingredientdb resolves ingredient safety scores from PostgreSQL.
package ingredientdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"cosmetic-insights/internal/analytics/ranking"
	"cosmetic-insights/internal/analytics/safety"
)

const sourceName = "ingredient_scores"

// Schema creates the ingredient_scores table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS ingredient_scores (
		normalized_name TEXT PRIMARY KEY,
		safety_score    DOUBLE PRECISION NOT NULL CHECK (safety_score >= 0 AND safety_score <= 10),
		hazards         JSONB,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

const lookupQuery = `SELECT safety_score, hazards FROM ingredient_scores WHERE normalized_name = $1`

// Store implements safety.ScoreLookup over the ingredient_scores table.
// hazards is a JSON array column; NULL means no hazards recorded.
type Store struct {
	db *sql.DB
}

// New returns a Store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// LookupScore reads the score for an already normalized name. A missing
// row is safety.ErrNotFound.
func (s *Store) LookupScore(ctx context.Context, name string) (*safety.IngredientScore, error) {
	var (
		score   float64
		hazards sql.NullString
	)

	err := s.db.QueryRowContext(ctx, lookupQuery, name).Scan(&score, &hazards)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, safety.ErrNotFound
		}
		if isConnectionError(err) {
			return nil, fmt.Errorf("%w: %w", safety.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}

	result := &safety.IngredientScore{
		Score:   score,
		Hazards: []string{},
		Source:  sourceName,
	}
	if hazards.Valid && hazards.String != "" {
		if err := json.Unmarshal([]byte(hazards.String), &result.Hazards); err != nil {
			return nil, fmt.Errorf("decode hazards for %q: %w", name, err)
		}
		if result.Hazards == nil {
			result.Hazards = []string{}
		}
	}
	return result, nil
}

// ErrInvalidScore rejects a score entry that could never be looked up or
// that violates the table's score range.
var ErrInvalidScore = errors.New("invalid ingredient score")

// ScoreEntry is one row of a score seed file.
type ScoreEntry struct {
	Name    string   `yaml:"name"`
	Score   float64  `yaml:"score"`
	Hazards []string `yaml:"hazards"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Upsert stores or replaces the score of one ingredient. The name is
// normalized the same way lookups are.
func (s *Store) Upsert(ctx context.Context, name string, score float64, hazards []string) error {
	return upsert(ctx, s.db, name, score, hazards)
}

// Seed upserts every entry in one transaction. Nothing is written if any
// entry fails.
func (s *Store) Seed(ctx context.Context, entries []ScoreEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isConnectionError(err) {
			return 0, fmt.Errorf("%w: %w", safety.ErrSourceUnavailable, err)
		}
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	for _, e := range entries {
		if err := upsert(ctx, tx, e.Name, e.Score, e.Hazards); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("seed %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(entries), nil
}

func upsert(ctx context.Context, db execer, name string, score float64, hazards []string) error {
	key := ranking.NormalizeKey(name)
	if key == "" {
		return fmt.Errorf("%w: empty ingredient name", ErrInvalidScore)
	}
	if score < 0 || score > 10 {
		return fmt.Errorf("%w: score %v for %q is outside 0..10", ErrInvalidScore, score, key)
	}
	if hazards == nil {
		hazards = []string{}
	}
	raw, err := json.Marshal(hazards)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO ingredient_scores (normalized_name, safety_score, hazards)
		VALUES ($1, $2, $3)
		ON CONFLICT (normalized_name)
		DO UPDATE SET safety_score = EXCLUDED.safety_score, hazards = EXCLUDED.hazards, updated_at = NOW()`,
		key, score, string(raw))
	if err != nil && isConnectionError(err) {
		return fmt.Errorf("%w: %w", safety.ErrSourceUnavailable, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
