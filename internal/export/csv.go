// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// csvHeaders is the TestIT/TestOps-compatible column set. One CSV row per
// test step; case-level fields appear only on the first row of each case.
var csvHeaders = []string{
	"Title",
	"Description",
	"Preconditions",
	"Test Step #",
	"Test Step Action",
	"Test Step Expected Result",
	"Test Type",
	"Design Technique",
	"API Path",
	"HTTP Method",
	"Priority",
	"Created Date",
}

// WriteCSV exports the test cases as a CSV file at path.
func WriteCSV(cases []types.TestCase, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, tc := range cases {
		for _, row := range caseRows(tc) {
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing CSV row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return f.Close()
}

// caseRows expands one test case into its per-step rows.
func caseRows(tc types.TestCase) [][]string {
	rows := make([][]string, 0, len(tc.Steps))
	for i, step := range tc.Steps {
		first := i == 0
		rows = append(rows, []string{
			onFirst(first, tc.Title),
			onFirst(first, tc.Description),
			onFirst(first, tc.Preconditions),
			strconv.Itoa(i + 1),
			step.Action,
			step.ExpectedResult,
			string(tc.Type),
			tc.DesignTechnique,
			tc.APIPath,
			tc.HTTPMethod,
			string(tc.Priority),
			onFirst(first, tc.CreatedAt),
		})
	}
	return rows
}

func onFirst(first bool, s string) string {
	if first {
		return s
	}
	return ""
}
