// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"strings"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// placeholderResult fills steps whose expected result the service omitted.
// Keeping such steps favors recall: a step with an action is still runnable
// even when the verification text is missing.
const placeholderResult = "Verify the response matches the documented behavior"

// validTechniques indexes the canonical design-technique labels, including
// the common abbreviations services use for them.
var validTechniques = func() map[string]string {
	m := map[string]string{
		"ep":                       "Equivalence Partitioning",
		"bva":                      "Boundary Value Analysis",
		"decision table testing":   "Decision Table",
		"pairwise testing":         "Pairwise",
		"state transition testing": "State Transition",
	}
	for _, t := range types.DesignTechniques {
		m[strings.ToLower(t)] = t
	}
	return m
}()

// validateCandidate turns one loosely-typed candidate record into a
// TestCase. Strict validation requires title, a valid test type and
// technique, path, method, and at least one step with a non-empty action.
// On strict failure a salvage pass requires only a title and one usable
// step, substituting neutral defaults everywhere else. A record failing
// both is dropped with the returned error as the diagnostic.
//
// fallbackPath and fallbackMethod fill in the operation identity when the
// service omitted it; loosely-typed data never flows past this function.
func validateCandidate(record map[string]any, fallbackPath, fallbackMethod string) (types.TestCase, error) {
	tc := types.TestCase{
		Title:           str(record["title"]),
		Description:     str(record["description"]),
		Preconditions:   str(record["preconditions"]),
		Type:            types.TestType(str(record["test_type"])),
		DesignTechnique: str(record["design_technique"]),
		APIPath:         str(record["api_path"]),
		HTTPMethod:      strings.ToUpper(str(record["http_method"])),
		Priority:        types.Priority(str(record["priority"])),
		Steps:           steps(record["test_steps"]),
	}

	if tc.APIPath == "" {
		tc.APIPath = fallbackPath
	}
	if tc.HTTPMethod == "" {
		tc.HTTPMethod = strings.ToUpper(fallbackMethod)
	}

	if err := strictCheck(tc); err == nil {
		tc.DesignTechnique = canonicalTechnique(tc.DesignTechnique)
		fillDefaults(&tc)
		return tc, nil
	}

	return salvage(tc)
}

// strictCheck verifies the full required shape.
func strictCheck(tc types.TestCase) error {
	switch {
	case tc.Title == "":
		return fmt.Errorf("missing title")
	case tc.Type != types.TestPositive && tc.Type != types.TestNegative:
		return fmt.Errorf("invalid test_type %q", tc.Type)
	case canonicalTechnique(tc.DesignTechnique) == "":
		return fmt.Errorf("invalid design_technique %q", tc.DesignTechnique)
	case tc.APIPath == "":
		return fmt.Errorf("missing api_path")
	case tc.HTTPMethod == "":
		return fmt.Errorf("missing http_method")
	case len(tc.Steps) == 0:
		return fmt.Errorf("no test steps")
	}
	for i, s := range tc.Steps {
		if strings.TrimSpace(s.Action) == "" {
			return fmt.Errorf("step %d has an empty action", i+1)
		}
	}
	return nil
}

// salvage keeps a partially-valid record when it has at minimum a title and
// one step with a non-empty action. Steps with empty actions are dropped;
// everything else defaults.
func salvage(tc types.TestCase) (types.TestCase, error) {
	if strings.TrimSpace(tc.Title) == "" {
		return types.TestCase{}, fmt.Errorf("missing title")
	}

	var usable []types.TestStep
	for _, s := range tc.Steps {
		if strings.TrimSpace(s.Action) != "" {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return types.TestCase{}, fmt.Errorf("no step with a non-empty action")
	}
	tc.Steps = usable

	if tc.Type != types.TestPositive && tc.Type != types.TestNegative {
		tc.Type = "Unknown"
	}
	if canonical := canonicalTechnique(tc.DesignTechnique); canonical != "" {
		tc.DesignTechnique = canonical
	} else {
		tc.DesignTechnique = "Unknown"
	}
	fillDefaults(&tc)
	return tc, nil
}

// fillDefaults applies the neutral defaults shared by both paths.
func fillDefaults(tc *types.TestCase) {
	if tc.Priority != types.PriorityHigh && tc.Priority != types.PriorityMedium && tc.Priority != types.PriorityLow {
		tc.Priority = types.PriorityMedium
	}
	for i := range tc.Steps {
		if strings.TrimSpace(tc.Steps[i].ExpectedResult) == "" {
			tc.Steps[i].ExpectedResult = placeholderResult
		}
	}
}

// canonicalTechnique maps a technique label onto its canonical spelling,
// or "" when unrecognized.
func canonicalTechnique(label string) string {
	return validTechniques[strings.ToLower(strings.TrimSpace(label))]
}

// str extracts a string value from loosely-typed data.
func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// steps converts a loosely-typed step list. Steps may arrive as mappings
// with action/expected_result keys or as bare strings.
func steps(v any) []types.TestStep {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []types.TestStep
	for _, item := range list {
		switch s := item.(type) {
		case map[string]any:
			out = append(out, types.TestStep{
				Action:         str(s["action"]),
				ExpectedResult: str(s["expected_result"]),
			})
		case string:
			out = append(out, types.TestStep{Action: strings.TrimSpace(s)})
		}
	}
	return out
}
