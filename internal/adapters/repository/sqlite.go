package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/pkg/metrics"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS baselines (
	player_id TEXT PRIMARY KEY,
	doc TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS decisions (
	request_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	intent TEXT NOT NULL,
	routing_source TEXT NOT NULL,
	fallback_used INTEGER NOT NULL DEFAULT 0,
	decision_source TEXT NOT NULL,
	confidence REAL NOT NULL,
	doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at);
`

// SQLiteStore keeps baselines and audit records in a SQLite file, each row a JSON document.
type SQLiteStore struct {
	settings
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" keeps it in memory.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite store: empty path")
	}
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return &SQLiteStore{settings: newSettings(opts), db: db}, nil
}

// GetBaselines implements BaselineStore.
func (s *SQLiteStore) GetBaselines(ctx context.Context, ids []string) (map[string]model.Baseline, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	keys := make([]any, 0, len(ids))
	for _, id := range ids {
		if k := key(id); k != "" {
			keys = append(keys, k)
		}
	}
	out := make(map[string]model.Baseline, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	q := `SELECT player_id, doc FROM baselines WHERE player_id IN (?` + strings.Repeat(",?", len(keys)-1) + `)`
	rows, err := s.db.QueryContext(ctx, q, keys...)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		var b model.Baseline
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, fmt.Errorf("decode baseline %s: %w", id, err)
		}
		out[id] = fromStore(b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baselines: %w", err)
	}
	return out, nil
}

// GetBaseline implements BaselineStore.
func (s *SQLiteStore) GetBaseline(ctx context.Context, id string) (model.Baseline, error) {
	found, err := s.GetBaselines(ctx, []string{id})
	if err != nil {
		return model.Baseline{}, err
	}
	b, ok := found[key(id)]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Baseline{}, ErrNotFound
	}
	return b, nil
}

// PutBaseline implements BaselineStore.
func (s *SQLiteStore) PutBaseline(ctx context.Context, id string, b model.Baseline) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(sinceMs(start)) }()

	k := key(id)
	if k == "" {
		return ErrInvalidID
	}
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO baselines (player_id, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		k, string(doc), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put baseline: %w", err)
	}
	metrics.UpdateRepositoryRecords("baselines", s.count(ctx, "baselines"))
	return nil
}

// SaveDecision implements AuditStore.
func (s *SQLiteStore) SaveDecision(ctx context.Context, rec AuditRecord) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(sinceMs(start)) }()

	if rec.RequestID == "" {
		return ErrInvalidID
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO decisions
		(request_id, created_at, intent, routing_source, fallback_used, decision_source, confidence, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.CreatedAt.Format(time.RFC3339Nano), rec.Intent, rec.RoutingSource,
		rec.FallbackUsed, rec.DecisionSource, rec.Confidence, string(doc),
	)
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	metrics.UpdateRepositoryRecords("decisions", s.CountDecisions(ctx))
	return nil
}

// GetDecision implements AuditStore.
func (s *SQLiteStore) GetDecision(ctx context.Context, requestID string) (AuditRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM decisions WHERE request_id = ?`, requestID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return AuditRecord{}, ErrNotFound
	}
	if err != nil {
		return AuditRecord{}, fmt.Errorf("get decision: %w", err)
	}
	var rec AuditRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return AuditRecord{}, fmt.Errorf("decode decision: %w", err)
	}
	return rec, nil
}

// CountDecisions implements AuditStore.
func (s *SQLiteStore) CountDecisions(ctx context.Context) int {
	return s.count(ctx, "decisions")
}

func (s *SQLiteStore) count(ctx context.Context, table string) int {
	var n int
	_ = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
