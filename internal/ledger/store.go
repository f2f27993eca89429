package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	scene_json      TEXT NOT NULL,
	glyphs_json     TEXT NOT NULL,
	glyph_keys      TEXT NOT NULL,
	priority        REAL NOT NULL,
	routing_weight  REAL NOT NULL,
	policy_json     TEXT NOT NULL,
	hints_json      TEXT NOT NULL,
	dispatch_error  TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

CREATE TABLE IF NOT EXISTS run_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"
// #endregion schema

// #region store-struct
// Store persists processed runs in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations. ":memory:" keeps a
// single connection so every query sees the same database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion close

// #region record
// Record inserts a run. Missing RunID and CreatedAt are filled in and the
// stored run is returned.
func (s *Store) Record(run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	sceneJSON, err := json.Marshal(run.Scene)
	if err != nil {
		return Run{}, fmt.Errorf("marshal scene: %w", err)
	}
	glyphsJSON, err := json.Marshal(run.Glyphs)
	if err != nil {
		return Run{}, fmt.Errorf("marshal glyphs: %w", err)
	}
	keysJSON, err := json.Marshal(glyphKeys(run))
	if err != nil {
		return Run{}, fmt.Errorf("marshal glyph keys: %w", err)
	}
	policyJSON, err := json.Marshal(run.Policy)
	if err != nil {
		return Run{}, fmt.Errorf("marshal policy: %w", err)
	}
	hintsJSON, err := json.Marshal(run.Hints)
	if err != nil {
		return Run{}, fmt.Errorf("marshal hints: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, scene_json, glyphs_json, glyph_keys, priority, routing_weight,
		                   policy_json, hints_json, dispatch_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, string(sceneJSON), string(glyphsJSON), string(keysJSON), run.Priority, run.RoutingWeight,
		string(policyJSON), string(hintsJSON), nullIfEmpty(run.DispatchError), run.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func glyphKeys(run Run) []string {
	keys := make([]string, len(run.Glyphs))
	for i, g := range run.Glyphs {
		keys[i] = g.Key
	}
	return keys
}
// #endregion record

// #region get
const runColumns = `run_id, scene_json, glyphs_json, priority, routing_weight, policy_json, hints_json, dispatch_error, created_at`

// Get retrieves a run by id. Unknown ids return ErrNotFound.
func (s *Store) Get(runID string) (Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}
// #endregion get

// #region recent
// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
}

// RecentWithGlyph returns up to limit runs that produced a glyph with the
// given key, newest first.
func (s *Store) RecentWithGlyph(key string, limit int) ([]Run, error) {
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs
		 WHERE EXISTS (SELECT 1 FROM json_each(runs.glyph_keys) WHERE json_each.value = ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, key, limit,
	)
}

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
// #endregion recent

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var sceneJSON, glyphsJSON, policyJSON, hintsJSON, createdStr string
	var dispatchErr sql.NullString

	err := sc.Scan(&run.RunID, &sceneJSON, &glyphsJSON, &run.Priority, &run.RoutingWeight,
		&policyJSON, &hintsJSON, &dispatchErr, &createdStr)
	if err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(sceneJSON), &run.Scene); err != nil {
		return Run{}, fmt.Errorf("unmarshal scene: %w", err)
	}
	if err := json.Unmarshal([]byte(glyphsJSON), &run.Glyphs); err != nil {
		return Run{}, fmt.Errorf("unmarshal glyphs: %w", err)
	}
	if err := json.Unmarshal([]byte(policyJSON), &run.Policy); err != nil {
		return Run{}, fmt.Errorf("unmarshal policy: %w", err)
	}
	if err := json.Unmarshal([]byte(hintsJSON), &run.Hints); err != nil {
		return Run{}, fmt.Errorf("unmarshal hints: %w", err)
	}
	if dispatchErr.Valid {
		run.DispatchError = dispatchErr.String
	}
	run.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return run, nil
}
// #endregion scan
