// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// httpMethods is the fixed, ordered set of methods considered per path.
var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Operation identifies one (path, method) pair together with the
// self-contained payload handed to the generator.
type Operation struct {
	// Path is the API resource path (e.g. "/pets/{id}").
	Path string

	// Method is the HTTP method in upper case.
	Method string

	// Payload is the minimal, fully-resolved context for this operation.
	Payload Payload
}

// Payload is the resolved operation body, only the schemas it references,
// and a trimmed global-context block. Built fresh per operation and never
// mutated afterwards.
type Payload struct {
	// Path and Method repeat the operation identity so the payload can be
	// serialized standalone into a prompt.
	Path   string `json:"path"`
	Method string `json:"method"`

	// Operation is the operation body with all $refs inlined.
	Operation map[string]any `json:"operation"`

	// Schemas maps referenced schema name to its fully inlined definition.
	Schemas map[string]any `json:"relevant_schemas"`

	// Context is the trimmed global block: info, base path or servers, and
	// security scheme definitions. Never the full schema catalog.
	Context map[string]any `json:"api_context"`
}

// ExtractOperations enumerates the operations to process, applying the
// path/method/tag filters, and assembles a payload for each. The returned
// slice is ordered by the document's path iteration order and the fixed
// method order. An empty result means nothing survived filtering; callers
// treat that as a run-level condition. Warnings go to w.
func ExtractOperations(d *Document, filters types.FilterConfig, w io.Writer) []Operation {
	var ops []Operation

	for _, path := range sortedKeys(d.Paths()) {
		if !filters.AllowsPath(path) {
			continue
		}

		pathItem, ok := d.Paths()[path].(map[string]any)
		if !ok {
			continue
		}

		for _, method := range httpMethods {
			if !filters.AllowsMethod(method) {
				continue
			}

			raw, ok := pathItem[strings.ToLower(method)].(map[string]any)
			if !ok {
				continue
			}

			if !filters.AllowsTags(operationTags(raw)) {
				continue
			}

			resolved, ok := d.ResolveDeep(raw, nil, w).(map[string]any)
			if !ok {
				fmt.Fprintf(w, "warning: skipping malformed operation %s %s\n", method, path)
				continue
			}

			ops = append(ops, Operation{
				Path:   path,
				Method: method,
				Payload: Payload{
					Path:      path,
					Method:    method,
					Operation: resolved,
					Schemas:   d.relevantSchemas(raw, w),
					Context:   d.minimalContext(),
				},
			})
		}
	}

	return ops
}

// operationTags returns the operation's declared tags.
func operationTags(op map[string]any) []string {
	raw, _ := op["tags"].([]any)
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// relevantSchemas collects the schemas the operation references in its
// request body, fully resolved, keyed by schema name. OpenAPI 3.x declares
// bodies under requestBody.content.<type>.schema; Swagger 2.0 uses
// parameters with in:body. The scan runs over the unresolved operation so
// the $ref names are still visible.
func (d *Document) relevantSchemas(op map[string]any, w io.Writer) map[string]any {
	names := make(map[string]bool)

	// OpenAPI 3.x request body content blocks.
	if body, ok := op["requestBody"].(map[string]any); ok {
		if content, ok := body["content"].(map[string]any); ok {
			for _, raw := range content {
				block, _ := raw.(map[string]any)
				if name := schemaRefName(block); name != "" {
					names[name] = true
				}
			}
		}
	}

	// Swagger 2.0 body parameters.
	if params, ok := op["parameters"].([]any); ok {
		for _, raw := range params {
			param, _ := raw.(map[string]any)
			if in, _ := param["in"].(string); in != "body" {
				continue
			}
			if name := schemaRefName(param); name != "" {
				names[name] = true
			}
		}
	}

	schemas := make(map[string]any, len(names))
	for name := range names {
		schema := d.SchemaByName(name)
		if len(schema) == 0 {
			fmt.Fprintf(w, "warning: referenced schema %q not found\n", name)
			continue
		}
		schemas[name] = d.ResolveDeep(schema, nil, w)
	}
	return schemas
}

// schemaRefName extracts the referenced schema name from a block that holds
// a schema with a $ref (the last pointer segment is the name).
func schemaRefName(block map[string]any) string {
	schema, _ := block["schema"].(map[string]any)
	ref, _ := schema["$ref"].(string)
	if ref == "" {
		return ""
	}
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// minimalContext assembles the trimmed global block sent with every
// operation: title/version info, base path or server list, and security
// scheme definitions. The full schema catalog is deliberately excluded to
// keep payloads small.
func (d *Document) minimalContext() map[string]any {
	ctx := map[string]any{
		"info": d.Root["info"],
	}

	switch d.Dialect {
	case DialectSwagger2:
		ctx["host"] = stringOr(d.Root["host"], "")
		ctx["basePath"] = stringOr(d.Root["basePath"], "")
		if defs, ok := d.Root["securityDefinitions"]; ok {
			ctx["securityDefinitions"] = defs
		}
	case DialectOpenAPI3:
		if servers, ok := d.Root["servers"]; ok {
			ctx["servers"] = servers
		}
		if components, ok := d.Root["components"].(map[string]any); ok {
			if schemes, ok := components["securitySchemes"]; ok {
				ctx["components"] = map[string]any{"securitySchemes": schemes}
			}
		}
	}

	if sec, ok := d.Root["security"]; ok {
		ctx["security"] = sec
	}
	return ctx
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

// sortedKeys returns the map keys in lexical order so operation enumeration
// is deterministic across runs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
