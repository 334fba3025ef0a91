// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/testcase-engine/internal/export"
	"github.com/pdiddy/testcase-engine/internal/generate"
	"github.com/pdiddy/testcase-engine/internal/spec"
	"github.com/pdiddy/testcase-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <spec> [output]",
	Short: "Generate test cases for every operation in a spec",
	Long: `Generate loads a Swagger/OpenAPI spec from a file or URL, fans generation
requests out to the configured service with bounded concurrency, and exports
the validated, deduplicated test cases.

Examples:
  testcase-engine generate swagger.json cases.csv
  testcase-engine generate https://petstore.example/openapi.yaml cases.json --format json
  testcase-engine generate swagger.json cases.csv --max-concurrent 10
  testcase-engine generate swagger.json cases.csv --llm-url http://localhost:11434/v1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()
		applyGenerateFlags(cmd, &cfg)

		specPath := args[0]
		output := cfg.Export.Output
		if len(args) > 1 {
			output = args[1]
		}
		if output == "" {
			output = "generated_test_cases." + string(cfg.Export.Format)
		}
		cfg.Export.Format = formatForOutput(cfg.Export.Format, output)
		cfg.Export.Output = output

		if !spec.IsURL(specPath) {
			if _, err := os.Stat(specPath); err != nil {
				return fmt.Errorf("spec file not found: %s", specPath)
			}
		}
		if cfg.Generation.LLM.APIKey == "" && strings.Contains(strings.ToLower(cfg.Generation.LLM.BaseURL), "openrouter.ai") {
			return fmt.Errorf("no API key configured: put one in .secrets/openrouter-api-key, set OPENROUTER_API_KEY, or pass --api-key")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runGenerate(ctx, cfg, specPath, os.Stderr)
	},
}

// applyGenerateFlags lets explicit flags override the config file.
func applyGenerateFlags(cmd *cobra.Command, cfg *types.EngineConfig) {
	if cmd.Flags().Changed("api-key") {
		cfg.Generation.LLM.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Changed("llm-url") {
		cfg.Generation.LLM.BaseURL, _ = cmd.Flags().GetString("llm-url")
	}
	if cmd.Flags().Changed("model") {
		cfg.Generation.LLM.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("max-concurrent") {
		cfg.Generation.LLM.MaxConcurrent, _ = cmd.Flags().GetInt("max-concurrent")
	}
	if cmd.Flags().Changed("no-dedup") {
		noDedup, _ := cmd.Flags().GetBool("no-dedup")
		cfg.Generation.EnableDeduplication = !noDedup
	}
	if cmd.Flags().Changed("format") {
		format, _ := cmd.Flags().GetString("format")
		cfg.Export.Format = types.ExportFormat(format)
	}
}

// formatForOutput infers the export format from the output extension when
// they disagree, matching the principle of least surprise for
// "generate spec.json cases.json".
func formatForOutput(format types.ExportFormat, output string) types.ExportFormat {
	switch {
	case strings.HasSuffix(output, ".json"):
		return types.ExportJSON
	case strings.HasSuffix(output, ".csv"):
		return types.ExportCSV
	case strings.HasSuffix(output, ".db"), strings.HasSuffix(output, ".sqlite"):
		return types.ExportSQLite
	default:
		return format
	}
}

// runGenerate executes the full pipeline: load, extract, generate, export.
func runGenerate(ctx context.Context, cfg types.EngineConfig, specPath string, w *os.File) error {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Spec:   %s\n", specPath)
	bold.Fprintf(w, "Model:  %s @ %s\n", cfg.Generation.LLM.Model, cfg.Generation.LLM.BaseURL)
	bold.Fprintf(w, "Output: %s (%s)\n", cfg.Export.Output, cfg.Export.Format)

	client := &http.Client{Timeout: cfg.Generation.LLM.Timeout}

	doc, err := spec.Load(ctx, specPath, client)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}
	fmt.Fprintf(w, "loaded %s spec from %s\n", doc.Dialect, doc.Source)

	ops := spec.ExtractOperations(doc, cfg.Generation.Filters, w)
	if len(ops) == 0 {
		return fmt.Errorf("no operations matched the configured filters")
	}

	backend := &generate.OpenAIBackend{
		BaseURL:   cfg.Generation.LLM.BaseURL,
		Model:     cfg.Generation.LLM.Model,
		APIKey:    cfg.Generation.LLM.APIKey,
		UserAgent: cfg.Generation.LLM.UserAgent,
		Client:    client,
	}

	gen := generate.NewGenerator(backend, cfg.Generation)
	cases, err := gen.GenerateAll(ctx, ops, w)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Fprintln(w, "no test cases were generated")
		return nil
	}

	printSummary(w, cases)

	if err := export.Export(cases, cfg.Export); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	color.New(color.FgGreen).Fprintf(w, "exported %d test case(s) to %s\n", len(cases), cfg.Export.Output)
	return nil
}

// printSummary prints counts by test type and by design technique.
func printSummary(w *os.File, cases []types.TestCase) {
	positive, negative := 0, 0
	techniques := make(map[string]int)
	for _, tc := range cases {
		switch tc.Type {
		case types.TestPositive:
			positive++
		case types.TestNegative:
			negative++
		}
		techniques[tc.DesignTechnique]++
	}

	fmt.Fprintf(w, "\nBreakdown:\n")
	color.New(color.FgGreen).Fprintf(w, "  positive: %d\n", positive)
	color.New(color.FgRed).Fprintf(w, "  negative: %d\n", negative)

	names := make([]string, 0, len(techniques))
	for name := range techniques {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "By design technique:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %-24s %d\n", name, techniques[name])
	}
}

func init() {
	generateCmd.Flags().String("format", "", "output format: csv, json, or sqlite (default: inferred from output path)")
	generateCmd.Flags().String("api-key", "", "generative service API key (overrides secrets and environment)")
	generateCmd.Flags().String("llm-url", "", "generative service URL (e.g. http://localhost:11434/v1)")
	generateCmd.Flags().String("model", "", "model identifier (overrides config)")
	generateCmd.Flags().Int("max-concurrent", 0, "max concurrent requests (0 = unlimited)")
	generateCmd.Flags().Bool("no-dedup", false, "admit every valid case without deduplication")

	rootCmd.AddCommand(generateCmd)
}
