// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// WriteSQLite exports the test cases into a SQLite database at path, one
// row per case plus a child row per step. The whole export runs in a single
// transaction: either every case lands or none do.
func WriteSQLite(cases []types.TestCase, path string) error {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return err
	}

	meta := newMetadata(len(cases))

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, total_test_cases, generated_at) VALUES (?, ?, ?)`,
		meta.RunID, meta.TotalTestCases, meta.GeneratedAt,
	); err != nil {
		return fmt.Errorf("inserting run row: %w", err)
	}

	insertCase, err := tx.Prepare(`INSERT INTO test_cases
		(run_id, title, description, preconditions, test_type, design_technique, api_path, http_method, priority, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing case insert: %w", err)
	}
	defer insertCase.Close()

	insertStep, err := tx.Prepare(`INSERT INTO test_steps
		(case_id, step_number, action, expected_result)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing step insert: %w", err)
	}
	defer insertStep.Close()

	for _, tc := range cases {
		res, err := insertCase.Exec(
			meta.RunID, tc.Title, tc.Description, tc.Preconditions,
			string(tc.Type), tc.DesignTechnique, tc.APIPath, tc.HTTPMethod,
			string(tc.Priority), tc.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting case %q: %w", tc.Title, err)
		}
		caseID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading case id: %w", err)
		}

		for i, step := range tc.Steps {
			if _, err := insertStep.Exec(caseID, i+1, step.Action, step.ExpectedResult); err != nil {
				return fmt.Errorf("inserting step %d of %q: %w", i+1, tc.Title, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing export: %w", err)
	}
	return nil
}

func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			total_test_cases INTEGER NOT NULL,
			generated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS test_cases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			title TEXT NOT NULL,
			description TEXT,
			preconditions TEXT,
			test_type TEXT NOT NULL,
			design_technique TEXT,
			api_path TEXT NOT NULL,
			http_method TEXT NOT NULL,
			priority TEXT,
			created_date TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS test_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id INTEGER NOT NULL REFERENCES test_cases(id),
			step_number INTEGER NOT NULL,
			action TEXT NOT NULL,
			expected_result TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_test_cases_run_id ON test_cases(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_test_steps_case_id ON test_steps(case_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
