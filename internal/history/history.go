// Package history archives completed batch runs in a local sqlite database,
// so results survive workspace resets and can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	generated_at TEXT NOT NULL,
	network      TEXT NOT NULL,
	total        INTEGER NOT NULL,
	passed       INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	pass_rate    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_tests (
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	position     INTEGER NOT NULL,
	name         TEXT NOT NULL,
	tx_type      TEXT NOT NULL,
	status       TEXT NOT NULL,
	expected     TEXT NOT NULL,
	actual       TEXT NOT NULL,
	hash         TEXT NOT NULL,
	submitted_at TEXT,
	tx_json      TEXT NOT NULL
);
`

// Archive is a run-history store backed by sqlite.
type Archive struct {
	db *sql.DB
}

// RunRecord is one archived batch run.
type RunRecord struct {
	ID          int64
	GeneratedAt time.Time
	Network     string
	Total       int
	Passed      int
	Failed      int
	PassRate    int
}

// TestRecord is one archived test outcome within a run.
type TestRecord struct {
	Name        string
	Type        string
	Status      string
	Expected    string
	Actual      string
	Hash        string
	SubmittedAt *time.Time
	Transaction map[string]any
}

// Open opens (or creates) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveRun archives a report in one transaction and returns the run id.
func (a *Archive) SaveRunRecord(ctx context.Context, run RunRecord, tests []TestRecord) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting history transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (generated_at, network, total, passed, failed, pass_rate)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.GeneratedAt.Format(time.RFC3339), run.Network,
		run.Total, run.Passed, run.Failed, run.PassRate,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for i, t := range tests {
		txJSON, err := json.Marshal(t.Transaction)
		if err != nil {
			return 0, fmt.Errorf("encoding transaction for %q: %w", t.Name, err)
		}
		var submitted any
		if t.SubmittedAt != nil {
			submitted = t.SubmittedAt.Format(time.RFC3339)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_tests (run_id, position, name, tx_type, status, expected, actual, hash, submitted_at, tx_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, t.Name, t.Type, t.Status, t.Expected, t.Actual, t.Hash, submitted, string(txJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting test %q: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns archived runs, newest first.
func (a *Archive) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, generated_at, network, total, passed, failed, pass_rate
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var generated string
		if err := rows.Scan(&r.ID, &generated, &r.Network, &r.Total, &r.Passed, &r.Failed, &r.PassRate); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.GeneratedAt, err = time.Parse(time.RFC3339, generated)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunTests returns the archived test outcomes of one run, in run order.
func (a *Archive) RunTests(ctx context.Context, runID int64) ([]TestRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name, tx_type, status, expected, actual, hash, submitted_at, tx_json
		 FROM run_tests WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run tests: %w", err)
	}
	defer rows.Close()

	var out []TestRecord
	for rows.Next() {
		var t TestRecord
		var submitted sql.NullString
		var txJSON string
		if err := rows.Scan(&t.Name, &t.Type, &t.Status, &t.Expected, &t.Actual, &t.Hash, &submitted, &txJSON); err != nil {
			return nil, fmt.Errorf("scanning run test: %w", err)
		}
		if submitted.Valid {
			at, err := time.Parse(time.RFC3339, submitted.String)
			if err != nil {
				return nil, fmt.Errorf("parsing submission timestamp: %w", err)
			}
			t.SubmittedAt = &at
		}
		if err := json.Unmarshal([]byte(txJSON), &t.Transaction); err != nil {
			return nil, fmt.Errorf("decoding archived transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
