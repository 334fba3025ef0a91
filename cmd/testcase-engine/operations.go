// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/testcase-engine/internal/spec"
)

var operationsCmd = &cobra.Command{
	Use:   "operations <spec>",
	Short: "List the operations that would be processed, without generating",
	Long: `Operations loads a spec and prints the (method, path) pairs that survive
the configured path/method/tag filters. Useful for checking filters before
spending tokens on a full generation run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()

		doc, err := spec.Load(context.Background(), args[0], &http.Client{Timeout: cfg.Generation.LLM.Timeout})
		if err != nil {
			return fmt.Errorf("loading spec: %w", err)
		}

		ops := spec.ExtractOperations(doc, cfg.Generation.Filters, os.Stderr)
		if len(ops) == 0 {
			return fmt.Errorf("no operations matched the configured filters")
		}

		method := color.New(color.FgCyan, color.Bold)
		for _, op := range ops {
			method.Printf("%-7s", op.Method)
			fmt.Println(op.Path)
		}
		fmt.Fprintf(os.Stderr, "%d operation(s)\n", len(ops))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(operationsCmd)
}
