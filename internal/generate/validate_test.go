// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"testing"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

func fullRecord() map[string]any {
	return map[string]any{
		"title":            "GET /pets - Positive - Equivalence Partitioning",
		"description":      "Verifies listing pets with a valid request.",
		"preconditions":    "At least one pet exists.",
		"test_type":        "Positive",
		"design_technique": "Equivalence Partitioning",
		"api_path":         "/pets",
		"http_method":      "GET",
		"priority":         "High",
		"test_steps": []any{
			map[string]any{"action": "Send GET /pets", "expected_result": "200 with a pet list"},
		},
	}
}

func TestValidateCandidateStrict(t *testing.T) {
	tc, err := validateCandidate(fullRecord(), "/fallback", "post")
	if err != nil {
		t.Fatalf("validateCandidate: %v", err)
	}

	if tc.Type != types.TestPositive {
		t.Errorf("Type = %q", tc.Type)
	}
	if tc.APIPath != "/pets" || tc.HTTPMethod != "GET" {
		t.Errorf("identity = %s %s, fallbacks must not override explicit values", tc.HTTPMethod, tc.APIPath)
	}
	if tc.Priority != types.PriorityHigh {
		t.Errorf("Priority = %q", tc.Priority)
	}
	if len(tc.Steps) != 1 || tc.Steps[0].ExpectedResult != "200 with a pet list" {
		t.Errorf("Steps = %v", tc.Steps)
	}
}

func TestValidateCandidateFallbackIdentity(t *testing.T) {
	record := fullRecord()
	delete(record, "api_path")
	delete(record, "http_method")

	tc, err := validateCandidate(record, "/orders/{id}", "patch")
	if err != nil {
		t.Fatalf("validateCandidate: %v", err)
	}
	if tc.APIPath != "/orders/{id}" {
		t.Errorf("APIPath = %q", tc.APIPath)
	}
	if tc.HTTPMethod != "PATCH" {
		t.Errorf("HTTPMethod = %q, want upper-cased fallback", tc.HTTPMethod)
	}
}

func TestValidateCandidateTechniqueNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"equivalence partitioning", "Equivalence Partitioning"},
		{"BVA", "Boundary Value Analysis"},
		{"ep", "Equivalence Partitioning"},
		{"Decision Table Testing", "Decision Table"},
		{"pairwise testing", "Pairwise"},
		{"State Transition Testing", "State Transition"},
		{"Error Guessing", "Error Guessing"},
	}

	for _, tt := range tests {
		record := fullRecord()
		record["design_technique"] = tt.in

		tc, err := validateCandidate(record, "/p", "GET")
		if err != nil {
			t.Fatalf("validateCandidate(%q): %v", tt.in, err)
		}
		if tc.DesignTechnique != tt.want {
			t.Errorf("technique %q normalized to %q, want %q", tt.in, tc.DesignTechnique, tt.want)
		}
	}
}

func TestValidateCandidateSalvage(t *testing.T) {
	// A record with a bogus type and technique, a missing priority, steps
	// with empty actions mixed in, and no expected results. Salvage keeps it
	// with neutral defaults.
	record := map[string]any{
		"title":            "Partial but usable",
		"test_type":        "Exploratory",
		"design_technique": "Vibes",
		"test_steps": []any{
			map[string]any{"action": "   "},
			map[string]any{"action": "Send the request"},
			"Check the status code",
		},
	}

	tc, err := validateCandidate(record, "/pets", "GET")
	if err != nil {
		t.Fatalf("validateCandidate: %v", err)
	}

	if tc.Type != "Unknown" {
		t.Errorf("Type = %q, want Unknown", tc.Type)
	}
	if tc.DesignTechnique != "Unknown" {
		t.Errorf("DesignTechnique = %q, want Unknown for an unrecognized label", tc.DesignTechnique)
	}
	if tc.Priority != types.PriorityMedium {
		t.Errorf("Priority = %q, want Medium default", tc.Priority)
	}
	if len(tc.Steps) != 2 {
		t.Fatalf("Steps = %v, want the empty-action step dropped", tc.Steps)
	}
	if tc.Steps[0].Action != "Send the request" || tc.Steps[1].Action != "Check the status code" {
		t.Errorf("Steps = %v", tc.Steps)
	}
	for i, s := range tc.Steps {
		if s.ExpectedResult != placeholderResult {
			t.Errorf("step %d expected result = %q, want placeholder", i, s.ExpectedResult)
		}
	}
}

func TestValidateCandidateSalvageEmptyTechnique(t *testing.T) {
	record := map[string]any{
		"title":      "No technique at all",
		"test_steps": []any{map[string]any{"action": "do it"}},
	}

	tc, err := validateCandidate(record, "/pets", "GET")
	if err != nil {
		t.Fatalf("validateCandidate: %v", err)
	}
	if tc.DesignTechnique != "Unknown" {
		t.Errorf("DesignTechnique = %q, want Unknown", tc.DesignTechnique)
	}
}

func TestValidateCandidateDropped(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
	}{
		{
			name: "no title",
			record: map[string]any{
				"test_type":  "Positive",
				"test_steps": []any{map[string]any{"action": "do"}},
			},
		},
		{
			name: "no steps",
			record: map[string]any{
				"title": "steps missing",
			},
		},
		{
			name: "only empty-action steps",
			record: map[string]any{
				"title": "useless steps",
				"test_steps": []any{
					map[string]any{"action": ""},
					map[string]any{"expected_result": "something"},
				},
			},
		},
		{
			name: "steps not a list",
			record: map[string]any{
				"title":      "bad steps shape",
				"test_steps": "step one then step two",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := validateCandidate(tt.record, "/p", "GET"); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestValidateCandidateWhitespaceTrimming(t *testing.T) {
	record := fullRecord()
	record["title"] = "  padded title  "
	record["http_method"] = " get "

	tc, err := validateCandidate(record, "/p", "POST")
	if err != nil {
		t.Fatalf("validateCandidate: %v", err)
	}
	if tc.Title != "padded title" {
		t.Errorf("Title = %q", tc.Title)
	}
	if tc.HTTPMethod != "GET" {
		t.Errorf("HTTPMethod = %q", tc.HTTPMethod)
	}
}
