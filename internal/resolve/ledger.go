// Package resolve locates or produces the best available document artifact
// for a paper identifier, coordinating fetch, parse, and translation tiers.
package resolve

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Pipeline stage names recorded in the ledger.
const (
	StageFetch     = "fetch"
	StageParse     = "parse"
	StageTranslate = "translate"
)

// Ledger records pipeline stage completion per paper in SQLite. It is an
// observability aid: idempotence decisions stay existence-based on the
// artifacts themselves.
type Ledger struct {
	db *sql.DB
}

// NewLedger opens or creates the ledger database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewLedger(dbPath string) (*Ledger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS paper_stages (
		paper_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (paper_id, stage)
	);

	CREATE INDEX IF NOT EXISTS idx_paper_stages_stage ON paper_stages(stage);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// MarkCompleted records that stage finished for paperID, overwriting any
// earlier timestamp.
func (l *Ledger) MarkCompleted(ctx context.Context, paperID, stage string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO paper_stages (paper_id, stage, completed_at) VALUES (?, ?, ?)
		 ON CONFLICT(paper_id, stage) DO UPDATE SET completed_at = excluded.completed_at`,
		paperID, stage, time.Now().UTC(),
	)
	return err
}

// Completed returns the completion time of stage for paperID, if recorded.
func (l *Ledger) Completed(ctx context.Context, paperID, stage string) (time.Time, bool, error) {
	var at time.Time
	err := l.db.QueryRowContext(ctx,
		`SELECT completed_at FROM paper_stages WHERE paper_id = ? AND stage = ?`,
		paperID, stage,
	).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// CountByStage returns how many papers completed each stage.
func (l *Ledger) CountByStage(ctx context.Context) (map[string]int64, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT stage, COUNT(*) FROM paper_stages GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var stage string
		var n int64
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
