package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imagematcher/logging"
	"imagematcher/types"
)

// ErrRunNotFound is returned when a run id is not in the history
var ErrRunNotFound = errors.New("run not found")

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_path TEXT NOT NULL,
		corpus_root TEXT NOT NULL,
		threshold REAL NOT NULL,
		status TEXT NOT NULL,
		scanned INTEGER,
		matched INTEGER,
		started_at TEXT,
		duration_ms INTEGER
	);
	CREATE TABLE IF NOT EXISTS matches (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		score REAL NOT NULL,
		rank INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	logging.DebugLog("Opened run history database %s", dbPath)
	return db, nil
}

// StoreRun stores a finished run and its ranked matches, returning the new run id
func StoreRun(db *sql.DB, run types.RunRecord) (int64, error) {
	if run.Matched < len(run.Matches) {
		run.Matched = len(run.Matches)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction: %v", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (
			query_path, corpus_root, threshold, status, scanned, matched, started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.QueryPath, run.CorpusRoot, run.Threshold, run.Status, run.Scanned, run.Matched,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("cannot insert run for %s: %v", run.QueryPath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// Prepare statement to avoid SQL injection
	stmt, err := tx.Prepare(`INSERT INTO matches (run_id, path, score, rank) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("cannot prepare match statement: %v", err)
	}
	defer stmt.Close()

	for i, m := range run.Matches {
		if _, err := stmt.Exec(id, m.Path, m.Score, i+1); err != nil {
			return 0, fmt.Errorf("cannot insert match %s: %v", m.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logging.DebugLog("Stored run %d with %d matches", id, len(run.Matches))
	return id, nil
}

// ListRuns returns the most recent runs first, without their matches.
// A limit <= 0 returns every run.
func ListRuns(db *sql.DB, limit int) ([]types.RunRecord, error) {
	query := `SELECT id, query_path, corpus_root, threshold, status, scanned, matched, started_at, duration_ms
		FROM runs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot list runs: %v", err)
	}
	defer rows.Close()

	runs := []types.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run together with its matches in rank order
func GetRun(db *sql.DB, id int64) (types.RunRecord, error) {
	row := db.QueryRow(`SELECT id, query_path, corpus_root, threshold, status, scanned, matched, started_at, duration_ms
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.RunRecord{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return types.RunRecord{}, err
	}

	run.Matches, err = RunMatches(db, id)
	return run, err
}

// RunMatches returns the matches of a run ordered by rank
func RunMatches(db *sql.DB, id int64) ([]types.MatchResult, error) {
	rows, err := db.Query(`SELECT path, score FROM matches WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("cannot read matches of run %d: %v", id, err)
	}
	defer rows.Close()

	matches := []types.MatchResult{}
	for rows.Next() {
		var m types.MatchResult
		if err := rows.Scan(&m.Path, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// DeleteRun removes a run and its matches
func DeleteRun(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (types.RunRecord, error) {
	var (
		run        types.RunRecord
		startedAt  string
		durationMs int64
	)
	err := row.Scan(&run.ID, &run.QueryPath, &run.CorpusRoot, &run.Threshold, &run.Status,
		&run.Scanned, &run.Matched, &startedAt, &durationMs)
	if err != nil {
		return run, err
	}
	if t, perr := time.Parse(time.RFC3339Nano, startedAt); perr == nil {
		run.StartedAt = t
	} else {
		logging.LogWarning("Run %d has unparsable start time %q", run.ID, startedAt)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}
