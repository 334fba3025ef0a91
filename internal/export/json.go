// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// jsonDocument is the JSON export envelope.
type jsonDocument struct {
	Metadata  Metadata         `json:"metadata"`
	TestCases []types.TestCase `json:"test_cases"`
}

// WriteJSON exports the test cases as an indented JSON file at path.
func WriteJSON(cases []types.TestCase, path string) error {
	doc := jsonDocument{
		Metadata:  newMetadata(len(cases)),
		TestCases: cases,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing JSON file: %w", err)
	}
	return nil
}
