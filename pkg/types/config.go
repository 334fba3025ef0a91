// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "testcase-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for the generative service that produces test cases.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the OpenAI-compatible API root
	// (e.g. "https://openrouter.ai/api/v1" or a local endpoint).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model identifier (e.g. "openai/gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the output size per request (default 16000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of generation attempts per operation (default 3).
	MaxRetries int `json:"retry_attempts" yaml:"retry_attempts"`

	// RetryDelay is the base delay between attempts; attempt n waits n×RetryDelay.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// MaxConcurrent caps how many operations generate in parallel.
	// Zero means unlimited fan-out.
	MaxConcurrent int `json:"max_concurrent_requests" yaml:"max_concurrent_requests"`

	// UseStreaming requests incremental delivery from the service (default true).
	UseStreaming bool `json:"use_streaming" yaml:"use_streaming"`

	// StructuredOutputModels lists model identifiers known to support
	// strict schema-constrained output. Requests for these models ask for
	// schema-guided JSON first and fall back to plain JSON mode on failure.
	StructuredOutputModels []string `json:"structured_output_models" yaml:"structured_output_models"`
}

// SupportsStructuredOutput reports whether the configured model is on the
// strict-output allowlist.
func (c LLMConfig) SupportsStructuredOutput() bool {
	for _, m := range c.StructuredOutputModels {
		if m == c.Model {
			return true
		}
	}
	return false
}

// FilterConfig selects which spec operations are processed.
type FilterConfig struct {
	// IncludePaths keeps only paths with one of these prefixes (empty = all).
	IncludePaths []string `json:"include_paths" yaml:"include_paths"`

	// ExcludePaths drops paths with one of these prefixes.
	ExcludePaths []string `json:"exclude_paths" yaml:"exclude_paths"`

	// IncludeMethods keeps only these HTTP methods (empty = all).
	IncludeMethods []string `json:"include_methods" yaml:"include_methods"`

	// IncludeTags keeps only operations tagged with at least one of these
	// (empty = all).
	IncludeTags []string `json:"include_tags" yaml:"include_tags"`
}

// AllowsPath reports whether the API path passes the include/exclude
// prefix filters.
func (f FilterConfig) AllowsPath(path string) bool {
	if len(f.IncludePaths) > 0 && !hasAnyPrefix(path, f.IncludePaths) {
		return false
	}
	if hasAnyPrefix(path, f.ExcludePaths) {
		return false
	}
	return true
}

// AllowsMethod reports whether the HTTP method passes the method filter.
// Matching is case-insensitive.
func (f FilterConfig) AllowsMethod(method string) bool {
	if len(f.IncludeMethods) == 0 {
		return true
	}
	for _, m := range f.IncludeMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// AllowsTags reports whether at least one of the operation's tags matches
// the tag filter. An empty filter accepts everything, including untagged
// operations.
func (f FilterConfig) AllowsTags(tags []string) bool {
	if len(f.IncludeTags) == 0 {
		return true
	}
	for _, t := range tags {
		for _, want := range f.IncludeTags {
			if t == want {
				return true
			}
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ExportFormat selects the export target.
type ExportFormat string

const (
	ExportCSV    ExportFormat = "csv"
	ExportJSON   ExportFormat = "json"
	ExportSQLite ExportFormat = "sqlite"
)

// ExportConfig holds settings for the export pass.
type ExportConfig struct {
	// Format selects csv, json, or sqlite output.
	Format ExportFormat `json:"format" yaml:"format"`

	// Output is the destination file path.
	Output string `json:"output" yaml:"output"`
}

// GenerationConfig groups the settings that drive one generation run.
type GenerationConfig struct {
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// EnableDeduplication collapses equivalent test cases (default true).
	EnableDeduplication bool `json:"enable_deduplication" yaml:"enable_deduplication"`

	Filters FilterConfig `json:"filters" yaml:"filters"`
}

// EngineConfig groups all configuration for the CLI.
type EngineConfig struct {
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Export     ExportConfig     `json:"export" yaml:"export"`
}
