package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PhucNguyen204/sigma2padas/pkg/padas"
)

// schemaSQL may hold several statements separated by ';'.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS padas_rules (
    id          TEXT PRIMARY KEY,
    schema      TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    pdl         TEXT NOT NULL,
    document    JSONB NOT NULL,
    enabled     BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS padas_rules_schema_idx ON padas_rules(schema)
`

const upsertSQL = `INSERT INTO padas_rules(id, schema, name, pdl, document, enabled, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (id) DO UPDATE SET schema=EXCLUDED.schema, name=EXCLUDED.name, pdl=EXCLUDED.pdl,
        document=EXCLUDED.document, enabled=EXCLUDED.enabled, updated_at=EXCLUDED.updated_at`

// Store persists converted rules in Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the rules table. Safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.execScript(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertRules writes all records in one transaction: either every rule is
// stored or none is.
func (s *Store) UpsertRules(ctx context.Context, records []padas.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := s.now()
	for _, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal rule %s: %w", r.RuleID(), err)
		}
		if _, err := tx.ExecContext(ctx, upsertSQL,
			r.RuleID(), r.Schema().String(), displayName(r), r.Predicate(), string(doc), false, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert rule %s: %w", r.RuleID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// StoredRule is one row of padas_rules.
type StoredRule struct {
	ID        string    `json:"id"`
	Schema    string    `json:"schema"`
	Name      string    `json:"name"`
	PDL       string    `json:"pdl"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) ListRules(ctx context.Context, limit int) ([]StoredRule, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, schema, name, pdl, enabled, updated_at FROM padas_rules ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []StoredRule{}
	for rows.Next() {
		var r StoredRule
		if err := rows.Scan(&r.ID, &r.Schema, &r.Name, &r.PDL, &r.Enabled, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func displayName(r padas.Record) string {
	var v any
	switch t := r.(type) {
	case padas.RuleRecord:
		v = t.Name
	case padas.MetaRecord:
		v = t.Title
	}
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
