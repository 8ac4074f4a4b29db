package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const schemaLockID = int64(2026101701)

// TranslationRepository persists translation cache entries keyed by namespace and language.
type TranslationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTranslationRepository(db *sql.DB) *TranslationRepository {
	return &TranslationRepository{db: db, now: time.Now}
}

func (r *TranslationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS translation_cache (
	namespace TEXT NOT NULL,
	language TEXT NOT NULL,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, language)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *TranslationRepository) Load(ctx context.Context, namespace string) (map[string]json.RawMessage, error) {
	const query = `
SELECT language, payload
FROM translation_cache
WHERE namespace = $1
ORDER BY language`

	rows, err := r.db.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			language string
			payload  []byte
		)
		if err := rows.Scan(&language, &payload); err != nil {
			return nil, fmt.Errorf("scan translation row: %w", err)
		}
		out[language] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translation rows: %w", err)
	}
	return out, nil
}

func (r *TranslationRepository) Save(ctx context.Context, namespace, language string, payload json.RawMessage) error {
	if strings.TrimSpace(namespace) == "" || strings.TrimSpace(language) == "" {
		return errors.New("namespace and language are required")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload for %s/%s is not valid json", namespace, language)
	}

	const query = `
INSERT INTO translation_cache (namespace, language, payload, updated_at)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (namespace, language)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, namespace, language, string(payload), r.now().UTC()); err != nil {
		return fmt.Errorf("upsert translation: %w", err)
	}
	return nil
}
