// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

func sampleCases() []types.TestCase {
	return []types.TestCase{
		{
			Title:           "GET /pets - Positive - Equivalence Partitioning",
			Description:     "Lists pets with a valid request.",
			Preconditions:   "At least one pet exists.",
			Type:            types.TestPositive,
			DesignTechnique: "Equivalence Partitioning",
			APIPath:         "/pets",
			HTTPMethod:      "GET",
			Priority:        types.PriorityHigh,
			CreatedAt:       "2026-01-15T12:00:00Z",
			Steps: []types.TestStep{
				{Action: "Send GET /pets", ExpectedResult: "200 with a pet list"},
				{Action: "Inspect the first element", ExpectedResult: "It has id and name"},
			},
		},
		{
			Title:           "GET /pets - Negative - Error Guessing",
			Type:            types.TestNegative,
			DesignTechnique: "Error Guessing",
			APIPath:         "/pets",
			HTTPMethod:      "GET",
			Priority:        types.PriorityMedium,
			CreatedAt:       "2026-01-15T12:00:01Z",
			Steps: []types.TestStep{
				{Action: "Send GET /pets with a malformed token", ExpectedResult: "401"},
			},
		},
	}
}

func TestExportDispatch(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format  types.ExportFormat
		file    string
		wantErr bool
	}{
		{types.ExportCSV, "out.csv", false},
		{types.ExportJSON, "out.json", false},
		{types.ExportSQLite, "out.db", false},
		{"xml", "out.xml", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			err := Export(sampleCases(), types.ExportConfig{
				Format: tt.format,
				Output: filepath.Join(dir, tt.file),
			})
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
		})
	}
}

func TestWriteCSVRowLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	if err := WriteCSV(sampleCases(), path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}

	// Header + 2 steps for the first case + 1 step for the second.
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][0] != "Title" || rows[0][4] != "Test Step Action" {
		t.Errorf("header = %v", rows[0])
	}

	first, second := rows[1], rows[2]
	if first[0] == "" || first[3] != "1" {
		t.Errorf("first step row = %v", first)
	}
	// Case-level fields appear only on the first row of each case.
	if second[0] != "" || second[1] != "" || second[11] != "" {
		t.Errorf("continuation row repeats case fields: %v", second)
	}
	if second[3] != "2" || second[4] != "Inspect the first element" {
		t.Errorf("continuation row = %v", second)
	}
	// Type/technique/path/method/priority repeat on every row.
	if second[6] != "Positive" || second[8] != "/pets" || second[9] != "GET" {
		t.Errorf("per-row fields missing on continuation: %v", second)
	}

	if rows[3][0] != "GET /pets - Negative - Error Guessing" {
		t.Errorf("second case row = %v", rows[3])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(nil, path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty export must still write the header row")
	}
}

func TestWriteJSONEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	if err := WriteJSON(sampleCases(), path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing export: %v", err)
	}

	if doc.Metadata.RunID == "" {
		t.Error("metadata missing run_id")
	}
	if doc.Metadata.TotalTestCases != 2 {
		t.Errorf("total_test_cases = %d, want 2", doc.Metadata.TotalTestCases)
	}
	if doc.Metadata.GeneratedAt == "" {
		t.Error("metadata missing generated_at")
	}
	if len(doc.TestCases) != 2 {
		t.Fatalf("got %d cases, want 2", len(doc.TestCases))
	}
	if doc.TestCases[0].Steps[0].Action != "Send GET /pets" {
		t.Errorf("case round-trip lost steps: %+v", doc.TestCases[0])
	}
}

func TestWriteSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.db")
	if err := WriteSQLite(sampleCases(), path); err != nil {
		t.Fatalf("WriteSQLite: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var runs, caseCount, stepCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM test_cases`).Scan(&caseCount); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM test_steps`).Scan(&stepCount); err != nil {
		t.Fatal(err)
	}
	if runs != 1 || caseCount != 2 || stepCount != 3 {
		t.Errorf("counts = (%d runs, %d cases, %d steps), want (1, 2, 3)", runs, caseCount, stepCount)
	}

	var title, method string
	err = db.QueryRow(
		`SELECT title, http_method FROM test_cases WHERE test_type = ?`, "Negative",
	).Scan(&title, &method)
	if err != nil {
		t.Fatal(err)
	}
	if title != "GET /pets - Negative - Error Guessing" || method != "GET" {
		t.Errorf("negative case = (%q, %q)", title, method)
	}

	// Steps belong to their case via the foreign key.
	var action string
	err = db.QueryRow(`
		SELECT s.action FROM test_steps s
		JOIN test_cases c ON c.id = s.case_id
		WHERE c.test_type = 'Negative' AND s.step_number = 1
	`).Scan(&action)
	if err != nil {
		t.Fatal(err)
	}
	if action != "Send GET /pets with a malformed token" {
		t.Errorf("joined step action = %q", action)
	}
}
