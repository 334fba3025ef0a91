// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// TestType classifies a test case as exercising the happy path or a failure mode.
type TestType string

const (
	TestPositive TestType = "Positive"
	TestNegative TestType = "Negative"
)

// Priority ranks how important a test case is to execute.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DesignTechniques lists the accepted test-design technique labels.
// Generated cases carrying any other label are normalized during validation.
var DesignTechniques = []string{
	"Equivalence Partitioning",
	"Boundary Value Analysis",
	"Error Guessing",
	"Decision Table",
	"Pairwise",
	"State Transition",
}

// TestStep is a single action/verification pair within a test case.
type TestStep struct {
	// Action describes what the tester (or harness) does.
	Action string `json:"action" yaml:"action"`

	// ExpectedResult describes the expected HTTP status and body details.
	ExpectedResult string `json:"expected_result" yaml:"expected_result"`
}

// TestCase is a validated, export-ready test case for one API operation.
type TestCase struct {
	// Title is a short name including method, path, type, and technique.
	Title string `json:"title" yaml:"title"`

	// Description explains what the test verifies.
	Description string `json:"description" yaml:"description"`

	// Preconditions describe the setup required before the test.
	Preconditions string `json:"preconditions" yaml:"preconditions"`

	// Steps holds the ordered action/expected-result pairs. Always non-empty.
	Steps []TestStep `json:"test_steps" yaml:"test_steps"`

	// Type is Positive or Negative.
	Type TestType `json:"test_type" yaml:"test_type"`

	// DesignTechnique names the test-design technique applied.
	DesignTechnique string `json:"design_technique" yaml:"design_technique"`

	// APIPath is the operation's resource path (e.g. "/pets/{id}").
	APIPath string `json:"api_path" yaml:"api_path"`

	// HTTPMethod is the operation's method in upper case.
	HTTPMethod string `json:"http_method" yaml:"http_method"`

	// Priority is High, Medium, or Low.
	Priority Priority `json:"priority" yaml:"priority"`

	// CreatedAt is the RFC 3339 timestamp of when the case was admitted.
	CreatedAt string `json:"created_date" yaml:"created_date"`
}

// dedupPrefixLen bounds how much of the title and first-step text
// participates in the dedup key.
const dedupPrefixLen = 100

// DedupKey returns the composite identity used to collapse equivalent cases.
// Two cases with the same path, method, type, technique, title prefix, and
// first-step prefixes are considered duplicates regardless of their
// descriptions or later steps.
func (tc TestCase) DedupKey() string {
	var firstAction, firstResult string
	if len(tc.Steps) > 0 {
		firstAction = prefix(tc.Steps[0].Action)
		firstResult = prefix(tc.Steps[0].ExpectedResult)
	}

	parts := []string{
		tc.APIPath,
		tc.HTTPMethod,
		string(tc.Type),
		tc.DesignTechnique,
		prefix(tc.Title),
		firstAction,
		firstResult,
	}
	return strings.Join(parts, "|")
}

// prefix truncates s to dedupPrefixLen runes and trims surrounding whitespace.
func prefix(s string) string {
	runes := []rune(s)
	if len(runes) > dedupPrefixLen {
		runes = runes[:dedupPrefixLen]
	}
	return strings.TrimSpace(string(runes))
}
