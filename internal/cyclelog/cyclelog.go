// Package cyclelog persists a rolling history of completed cycles in SQLite.
package cyclelog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/cyclelog/migrations"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
)

// DBName is the file created under the data directory.
const DBName = "cycles.db"

// Entry is one persisted cycle.
type Entry struct {
	ID        int64           `json:"id"`
	Seq       int64           `json:"seq"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Events    int             `json:"events"`
	Failed    int             `json:"failed"`
	Outcomes  []cycle.Outcome `json:"outcomes"`
}

// Log is the SQLite-backed cycle history.
type Log struct {
	db      *sql.DB
	path    string
	maxRows int
}

// Open opens or creates the log under dataDir and applies pending migrations.
// maxRows <= 0 uses constants.MaxCycleLogRows.
func Open(dataDir string, maxRows int) (*Log, error) {
	if dataDir == "" {
		return nil, errors.NewConfigurationError("cyclelog", "data directory is required", nil)
	}
	if err := os.MkdirAll(dataDir, constants.DirPermissions); err != nil {
		return nil, errors.WrapResource("create", "directory", dataDir, err)
	}
	return open(filepath.Join(dataDir, DBName), maxRows)
}

func open(path string, maxRows int) (*Log, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.WrapResource("open", "database", path, err)
	}
	if maxRows <= 0 {
		maxRows = constants.MaxCycleLogRows
	}

	l := &Log{db: db, path: path, maxRows: maxRows}
	if err := l.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Log) Path() string {
	return l.path
}

func (l *Log) migrate(fsys embed.FS) error {
	if _, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := l.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := l.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := l.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Record stores r and prunes rows beyond the retention limit.
func (l *Log) Record(ctx context.Context, r *cycle.Report) error {
	outcomes, err := json.Marshal(r.Outcomes)
	if err != nil {
		return errors.WrapParse("json", "cycle outcomes", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("begin", "transaction", "cycles", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cycles (seq, started_at, duration_ms, events, failed, outcomes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Seq, r.StartedAt.UTC(), r.Duration.Milliseconds(), len(r.Events), r.Failed(), string(outcomes)); err != nil {
		return errors.WrapResource("insert", "cycle", fmt.Sprint(r.Seq), err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cycles WHERE id NOT IN (
			SELECT id FROM cycles ORDER BY id DESC LIMIT ?
		)
	`, l.maxRows); err != nil {
		return errors.WrapResource("prune", "cycles", "", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapResource("commit", "transaction", "cycles", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = constants.DefaultCycleLogLimit
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, seq, started_at, duration_ms, events, failed, outcomes
		FROM cycles ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.WrapResource("query", "cycles", "", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e        Entry
			ms       int64
			outcomes string
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.StartedAt, &ms, &e.Events, &e.Failed, &outcomes); err != nil {
			return nil, errors.WrapResource("scan", "cycle", "", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		if err := json.Unmarshal([]byte(outcomes), &e.Outcomes); err != nil {
			return nil, errors.WrapParse("json", "cycle outcomes", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("iterate", "cycles", "", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (l *Log) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles").Scan(&n); err != nil {
		return 0, errors.WrapResource("count", "cycles", "", err)
	}
	return n, nil
}
