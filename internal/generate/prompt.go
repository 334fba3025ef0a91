// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/testcase-engine/internal/spec"
)

// systemPrompt is the fixed test-design methodology instruction sent with
// every generation request.
const systemPrompt = `You are a senior QA engineer and test design expert. Analyze the provided API operation specification and produce the most thorough set of positive and negative test cases possible.

Mission-critical requirements:
- Cover EVERY scenario required for full validation; never limit the number of cases.
- Apply EVERY classic test-design technique:
  1. Equivalence Partitioning — valid vs. invalid classes per parameter
  2. Boundary Value Analysis — min, min+1, max-1, max, min-1, max+1
  3. Error Guessing — common failures and security issues (SQLi, XSS, invalid tokens, missing auth)
  4. Decision Table — combinations of required/optional fields and logical rules
  5. Pairwise — ensure every pair of parameters is covered
  6. State Transition — valid and invalid transitions whenever applicable

Detailed generation checklist:
- Positive cases: baseline happy path, every enum value, boundary positives, cases with all optional fields.
- Negative cases (FOR EVERY PARAMETER):
  * Numeric: min-1, min, min+1, max-1, max, max+1, disallowed negatives/zeros, overflow values, floats where ints are expected, wrong types.
  * Strings: empty, null, shorter than minLength, longer than maxLength, special characters (< > & " ' \ /), SQL injection, XSS, command injection, path traversal, unicode edge cases.
  * Enum: all valid values (positive) plus invalid out-of-set values.
  * Required fields missing individually and all missing at once.
  * Wrong data types for each field.
  * Invalid formats for email/URL/UUID/date-time and similar.
  * Auth failures: missing token, invalid token, expired token, insufficient scopes.
  * Resource state issues: non-existent IDs (404), deleted resources, conflicts (409), invalid transitions.

Important: more cases with full coverage are preferred over fewer cases with gaps.

Output format:
Return a JSON array of objects with the following fields:
{
  "title": "Short name (include method, path, type, technique)",
  "description": "Detailed explanation of what the test verifies",
  "preconditions": "Setup required before the test",
  "test_type": "Positive" or "Negative",
  "design_technique": "Equivalence Partitioning" | "Boundary Value Analysis" | "Error Guessing" | "Decision Table" | "Pairwise" | "State Transition",
  "api_path": "API resource path",
  "http_method": "GET/POST/PUT/PATCH/DELETE",
  "priority": "High" | "Medium" | "Low" with the meaning:
    - High: baseline positives and critical negatives (auth, invalid data types)
    - Medium: most boundary/validation/negative scenarios
    - Low: rare combinations, edge cases, exploratory scenarios
  "test_steps": [
    {
      "action": "Describe the action (e.g. send request with ...)",
      "expected_result": "Expected HTTP status and body details"
    }
  ]
}`

// userPromptTmpl embeds one operation payload into the per-request instruction.
var userPromptTmpl = template.Must(template.New("user").Parse(`Generate the MOST COMPREHENSIVE set of test cases for the following API operation:

` + "```json\n{{.PayloadJSON}}\n```" + `

Critical rules:
- Include every possible scenario (positive AND negative).
- Apply every test-design technique to each parameter.
- Do NOT limit the number of cases; coverage comes first.
- For each parameter, create separate cases for each equivalence class.
- For numeric parameters include every boundary value.
- For string parameters include every invalid pattern and type.
- Each case must be unique and focused on a single idea.
- Avoid duplicates: each case must verify a distinct scenario.
- Return a JSON array (starts with '[' and ends with ']').

Prioritization guidance:
- High: baseline positives, authorization/security, invalid data types.
- Medium: most boundary, validation, and negative scenarios.
- Low: rare combinations, edge cases, exploratory scenarios.
Aim for approximately: High 20-30%, Medium 60-70%, Low 5-10%.

Reminder: 50+ fully covered cases are better than 10 with gaps.`))

// userPrompt renders the per-operation instruction around the payload.
func userPrompt(payload spec.Payload) (string, error) {
	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling operation payload: %w", err)
	}

	var buf bytes.Buffer
	err = userPromptTmpl.Execute(&buf, struct{ PayloadJSON string }{PayloadJSON: string(payloadJSON)})
	if err != nil {
		return "", fmt.Errorf("rendering user prompt: %w", err)
	}
	return buf.String(), nil
}

// testCasesSchema is the JSON schema sent on strict schema-constrained
// requests. Services on the structured-output allowlist enforce it natively.
var testCasesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"test_cases": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":            map[string]any{"type": "string"},
					"description":      map[string]any{"type": "string"},
					"preconditions":    map[string]any{"type": "string"},
					"test_type":        map[string]any{"type": "string", "enum": []string{"Positive", "Negative"}},
					"design_technique": map[string]any{"type": "string"},
					"api_path":         map[string]any{"type": "string"},
					"http_method":      map[string]any{"type": "string"},
					"priority":         map[string]any{"type": "string", "enum": []string{"High", "Medium", "Low"}},
					"test_steps": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"action":          map[string]any{"type": "string"},
								"expected_result": map[string]any{"type": "string"},
							},
							"required":             []string{"action", "expected_result"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"title", "test_type", "api_path", "http_method", "test_steps"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"test_cases"},
	"additionalProperties": false,
}
