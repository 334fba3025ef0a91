// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/testcase-engine/internal/secrets"
	"github.com/pdiddy/testcase-engine/pkg/types"
)

// setDefaults registers the configuration defaults with viper. Every value
// can be overridden by the config file, TESTCASE_ENGINE_* environment
// variables, or command-line flags.
func setDefaults() {
	viper.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.model", "openai/gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 16000)
	viper.SetDefault("llm.retry_attempts", 3)
	viper.SetDefault("llm.retry_delay", "2s")
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.max_concurrent_requests", 0)
	viper.SetDefault("llm.use_streaming", true)
	viper.SetDefault("llm.structured_output_models", []string{
		"gpt-4o",
		"gpt-4o-mini",
		"openai/gpt-4o",
		"openai/gpt-4o-mini",
	})
	viper.SetDefault("generation.enable_deduplication", true)
	viper.SetDefault("export.format", "csv")
}

// engineConfig assembles the run configuration from viper.
func engineConfig() types.EngineConfig {
	setDefaults()

	return types.EngineConfig{
		Generation: types.GenerationConfig{
			LLM: types.LLMConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   durationOr("llm.timeout", 60*time.Second),
					UserAgent: "testcase-engine/" + version,
				},
				BaseURL:                viper.GetString("llm.base_url"),
				Model:                  viper.GetString("llm.model"),
				APIKey:                 secrets.APIKey(loadedSecrets),
				Temperature:            viper.GetFloat64("llm.temperature"),
				MaxTokens:              viper.GetInt("llm.max_tokens"),
				MaxRetries:             viper.GetInt("llm.retry_attempts"),
				RetryDelay:             durationOr("llm.retry_delay", 2*time.Second),
				MaxConcurrent:          viper.GetInt("llm.max_concurrent_requests"),
				UseStreaming:           viper.GetBool("llm.use_streaming"),
				StructuredOutputModels: viper.GetStringSlice("llm.structured_output_models"),
			},
			EnableDeduplication: viper.GetBool("generation.enable_deduplication"),
			Filters: types.FilterConfig{
				IncludePaths:   viper.GetStringSlice("filters.include_paths"),
				ExcludePaths:   viper.GetStringSlice("filters.exclude_paths"),
				IncludeMethods: viper.GetStringSlice("filters.include_methods"),
				IncludeTags:    viper.GetStringSlice("filters.include_tags"),
			},
		},
		Export: types.ExportConfig{
			Format: types.ExportFormat(viper.GetString("export.format")),
			Output: viper.GetString("export.output"),
		},
	}
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}
