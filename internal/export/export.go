// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export serializes generated test cases into CSV, JSON, or a
// SQLite database in one pass. Field names are stable and independent of
// whatever key spellings the generative service used.
package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// Metadata describes one export pass.
type Metadata struct {
	// RunID uniquely identifies the generation run that produced the cases.
	RunID string `json:"run_id"`

	// TotalTestCases is the number of exported cases.
	TotalTestCases int `json:"total_test_cases"`

	// GeneratedAt is the RFC 3339 export timestamp.
	GeneratedAt string `json:"generated_at"`
}

// newMetadata stamps a fresh run identifier and timestamp.
func newMetadata(n int) Metadata {
	return Metadata{
		RunID:          uuid.NewString(),
		TotalTestCases: n,
		GeneratedAt:    time.Now().Format(time.RFC3339),
	}
}

// Export writes the test cases to path in the requested format.
func Export(cases []types.TestCase, cfg types.ExportConfig) error {
	switch cfg.Format {
	case types.ExportCSV:
		return WriteCSV(cases, cfg.Output)
	case types.ExportJSON:
		return WriteJSON(cases, cfg.Output)
	case types.ExportSQLite:
		return WriteSQLite(cases, cfg.Output)
	default:
		return fmt.Errorf("unsupported export format %q (want csv, json, or sqlite)", cfg.Format)
	}
}
