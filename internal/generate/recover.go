// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// wrapperKeys are the conventional keys under which services wrap the
// record list when asked for a JSON object.
var wrapperKeys = []string{"test_cases", "cases", "testCases", "items"}

// recordKeys is the key set used by the "looks like a record" heuristic.
var recordKeys = []string{"title", "test_steps", "test_type", "api_path", "http_method"}

// recoverCandidates extracts zero or more candidate records from one raw
// service response. Strategies run in order and the first one that yields a
// non-empty candidate list wins:
//
//  1. parse the entire response directly
//  2. parse the interior of the first fenced code block
//  3. parse the substring between the first '[' and the last ']'
//  4. repair a truncated fragment by trimming to the last complete object
//     and balancing the open brackets
//  5. salvage every top-level-complete object that looks like a record
//
// Each strategy is pure; diagnostics go to w. An empty result means the
// caller counts the attempt as failed.
func recoverCandidates(text string, w io.Writer) []map[string]any {
	type strategy struct {
		name string
		run  func(string) []map[string]any
	}

	strategies := []strategy{
		{"direct", parseAndNormalize},
		{"code-block", codeBlockExtract},
		{"array", arrayExtract},
		{"balanced-repair", balancedRepair},
		{"object-salvage", objectSalvage},
	}

	for _, s := range strategies {
		if cases := s.run(text); len(cases) > 0 {
			if s.name != "direct" {
				fmt.Fprintf(w, "recovered %d candidate(s) via %s\n", len(cases), s.name)
			}
			return cases
		}
	}
	return nil
}

// parseAndNormalize attempts to parse the whole text as JSON and normalize
// the result into a candidate list.
func parseAndNormalize(text string) []map[string]any {
	var parsed any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil
	}
	return normalize(parsed)
}

// normalize converts a parsed value into a list of candidate records.
// Mappings are unwrapped through the conventional wrapper keys, or accepted
// as a single record when they look like one; lists are taken directly.
func normalize(parsed any) []map[string]any {
	switch v := parsed.(type) {
	case map[string]any:
		for _, key := range wrapperKeys {
			if list, ok := v[key].([]any); ok {
				return onlyMaps(list)
			}
		}
		if looksLikeRecord(v) {
			return []map[string]any{v}
		}
		return nil
	case []any:
		return onlyMaps(v)
	default:
		return nil
	}
}

// onlyMaps keeps the mapping elements of a candidate list.
func onlyMaps(list []any) []map[string]any {
	var out []map[string]any
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// looksLikeRecord reports whether at least three of the expected record
// keys are present.
func looksLikeRecord(m map[string]any) bool {
	hits := 0
	for _, key := range recordKeys {
		if _, ok := m[key]; ok {
			hits++
		}
	}
	return hits >= 3
}

// codeBlockExtract parses the interior of the first fenced code block.
// An optional language tag after the opening fence is skipped.
func codeBlockExtract(text string) []map[string]any {
	open := strings.Index(text, "```")
	if open < 0 {
		return nil
	}
	rest := text[open+3:]

	// Skip the language tag line, if any.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[") {
			rest = rest[nl+1:]
		}
	}

	closing := strings.Index(rest, "```")
	if closing < 0 {
		return nil
	}
	return parseAndNormalize(rest[:closing])
}

// arrayExtract parses the substring between the first '[' and the last ']'
// inclusive.
func arrayExtract(text string) []map[string]any {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return nil
	}
	return parseAndNormalize(text[start : end+1])
}

// bracketScan walks a fragment tracking bracket depth while correctly
// skipping over bracket characters inside quoted strings and honoring
// escape sequences.
type bracketScan struct {
	// stack holds the currently open brackets, outermost first.
	stack []byte

	// inString and escaped track the JSON string state.
	inString bool
	escaped  bool

	// lastComplete is the index just past the most recent object that
	// closed as a structurally-complete element of an enclosing array.
	// -1 when none completed yet.
	lastComplete int

	// openAtLastComplete snapshots the open brackets at lastComplete.
	openAtLastComplete []byte
}

// step advances the scan over one byte at index i.
func (s *bracketScan) step(c byte, i int) {
	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == '"':
			s.inString = false
		}
		return
	}

	switch c {
	case '"':
		s.inString = true
	case '{', '[':
		s.stack = append(s.stack, c)
	case '}', ']':
		if len(s.stack) == 0 {
			return
		}
		s.stack = s.stack[:len(s.stack)-1]
		// A record candidate just closed if the enclosing bracket is an
		// array; cutting here keeps only complete elements.
		if c == '}' && len(s.stack) > 0 && s.stack[len(s.stack)-1] == '[' {
			s.lastComplete = i + 1
			s.openAtLastComplete = append([]byte(nil), s.stack...)
		}
	}
}

// balancedRepair locates the first structural opening bracket, trims the
// fragment back to the last structurally-complete nested object when the
// tail is incomplete, strips a trailing separator, and appends exactly the
// closing brackets needed to balance the counted opens. It never fabricates
// a partial record: a child truncated mid-object is cut, not completed.
func balancedRepair(text string) []map[string]any {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil
	}
	frag := text[start:]

	scan := bracketScan{lastComplete: -1}
	for i := 0; i < len(frag); i++ {
		scan.step(frag[i], i)
	}

	var repaired string
	switch {
	case len(scan.stack) == 0:
		// Balanced already; the parse may still fail for other reasons.
		repaired = frag
	case scan.lastComplete > 0:
		// Cut the incomplete tail after the last complete child, then
		// close whatever was open at that point.
		repaired = strings.TrimRight(frag[:scan.lastComplete], ", \t\r\n")
		repaired += closers(scan.openAtLastComplete)
	default:
		// Nothing completed; balance the whole fragment as-is.
		repaired = strings.TrimRight(frag, ", \t\r\n")
		repaired += closers(scan.stack)
	}

	return parseAndNormalize(repaired)
}

// closers returns the closing brackets matching an open stack, innermost first.
func closers(stack []byte) string {
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			b.WriteByte('}')
		case '[':
			b.WriteByte(']')
		}
	}
	return b.String()
}

// objectSalvage scans the raw text with the same string-aware depth tracker
// and extracts every top-level-complete object substring, parsing each
// independently and keeping only those that look like records. This is the
// last resort for responses too mangled for the other strategies.
func objectSalvage(text string) []map[string]any {
	var (
		out      []map[string]any
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			// Quote tracking only matters inside an object; prose outside
			// objects carries unbalanced quotes that would desync the scan.
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				var m map[string]any
				if err := json.Unmarshal([]byte(text[start:i+1]), &m); err == nil && looksLikeRecord(m) {
					out = append(out, m)
				}
				start = -1
			}
		}
	}

	return out
}
