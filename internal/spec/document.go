// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spec loads Swagger 2.0 / OpenAPI 3.x documents and resolves
// intra-document references so each operation can be handed to the
// generator as a self-contained payload.
package spec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/testcase-engine/internal/httputil"
)

// Dialect identifies which schema-description format a document uses.
// The two dialects keep reusable definitions in different places and
// express request bodies differently.
type Dialect string

const (
	// DialectSwagger2 is Swagger 2.0: definitions under #/definitions,
	// request bodies as in:body parameters.
	DialectSwagger2 Dialect = "swagger2"

	// DialectOpenAPI3 is OpenAPI 3.x: schemas under #/components/schemas,
	// request bodies as requestBody content blocks.
	DialectOpenAPI3 Dialect = "openapi3"
)

// Document is a loaded API description. Immutable after Load; resolution
// helpers return copies and never mutate the underlying tree.
type Document struct {
	// Root is the raw decoded document.
	Root map[string]any

	// Dialect is the detected description format.
	Dialect Dialect

	// Source is the file path or URL the document was loaded from.
	Source string
}

// IsURL reports whether s looks like a fetchable URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Load reads a spec document from a local file or URL, decodes it as JSON
// or YAML, and detects the dialect. Loading failures are fatal to the run:
// no generation starts without a document.
func Load(ctx context.Context, pathOrURL string, client *http.Client) (*Document, error) {
	var (
		data   []byte
		isJSON bool
		err    error
	)

	if IsURL(pathOrURL) {
		data, isJSON, err = fetch(ctx, pathOrURL, client)
	} else {
		data, isJSON, err = readFile(pathOrURL)
	}
	if err != nil {
		return nil, err
	}

	root, err := decode(data, isJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing spec %s: %w", pathOrURL, err)
	}
	if len(root) == 0 {
		return nil, fmt.Errorf("spec %s is empty", pathOrURL)
	}

	return &Document{
		Root:    root,
		Dialect: detectDialect(root),
		Source:  pathOrURL,
	}, nil
}

// readFile loads a spec from disk. The extension decides the decode order.
func readFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading spec file: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".json"):
		return data, true, nil
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return data, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported spec file extension: %s (want .json, .yaml, or .yml)", path)
	}
}

// fetch downloads a spec over HTTP. Format detection prefers the
// Content-Type header, then the URL extension, then content sniffing.
func fetch(ctx context.Context, specURL string, client *http.Client) ([]byte, bool, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, specURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating spec request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, false, fmt.Errorf("fetching spec from %s: %w", specURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetching spec from %s: HTTP %d", specURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading spec body: %w", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "json") || strings.HasSuffix(specURL, ".json"):
		return data, true, nil
	case strings.Contains(contentType, "yaml") || strings.Contains(contentType, "yml") ||
		strings.HasSuffix(specURL, ".yaml") || strings.HasSuffix(specURL, ".yml"):
		return data, false, nil
	default:
		// Ambiguous; try JSON first and fall back to YAML in decode.
		return data, json.Valid(data), nil
	}
}

// decode parses the raw bytes into a generic map. When isJSON is false the
// YAML decoder handles both YAML and JSON input (JSON is a YAML subset).
func decode(data []byte, isJSON bool) (map[string]any, error) {
	if isJSON {
		var root map[string]any
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
		return root, nil
	}

	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return root, nil
}

// detectDialect inspects the version tag. Documents with neither an
// "openapi" nor a "swagger" key are treated as Swagger 2.0.
func detectDialect(root map[string]any) Dialect {
	if _, ok := root["openapi"]; ok {
		return DialectOpenAPI3
	}
	return DialectSwagger2
}

// Paths returns the document's paths map, or an empty map when absent.
func (d *Document) Paths() map[string]any {
	paths, _ := d.Root["paths"].(map[string]any)
	if paths == nil {
		return map[string]any{}
	}
	return paths
}
