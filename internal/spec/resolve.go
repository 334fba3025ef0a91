// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spec

import (
	"fmt"
	"io"
	"strings"
)

// circularSentinel marks a reference that was suppressed to break a cycle.
// Downstream consumers see where the cycle was instead of an infinite tree.
func circularSentinel(ref string) map[string]any {
	return map[string]any{
		"$ref":      ref,
		"_resolved": "circular_reference",
	}
}

// ResolveRef resolves a single intra-document $ref pointer and returns the
// pointed-to structure. External pointers are not supported: they produce a
// warning on w and resolve to an empty map. Lookup dispatches on the
// detected dialect for the conventional schema locations and falls back to
// generic path traversal for any other pointer shape.
func (d *Document) ResolveRef(ref string, w io.Writer) map[string]any {
	if !strings.HasPrefix(ref, "#/") {
		fmt.Fprintf(w, "warning: external references are not supported: %s\n", ref)
		return map[string]any{}
	}

	parts := strings.Split(ref[2:], "/")

	switch d.Dialect {
	case DialectOpenAPI3:
		if len(parts) == 3 && parts[0] == "components" && parts[1] == "schemas" {
			return d.SchemaByName(parts[2])
		}
	case DialectSwagger2:
		if len(parts) == 2 && parts[0] == "definitions" {
			return d.SchemaByName(parts[1])
		}
	}

	// Generic traversal for pointers outside the schema catalog
	// (e.g. #/parameters/..., #/components/responses/...).
	node := any(d.Root)
	for _, part := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return map[string]any{}
		}
		node = m[part]
	}
	if m, ok := node.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// SchemaByName looks up a named reusable schema in the dialect's catalog
// location. Returns an empty map when the name is unknown.
func (d *Document) SchemaByName(name string) map[string]any {
	var catalog map[string]any
	switch d.Dialect {
	case DialectOpenAPI3:
		components, _ := d.Root["components"].(map[string]any)
		catalog, _ = components["schemas"].(map[string]any)
	case DialectSwagger2:
		catalog, _ = d.Root["definitions"].(map[string]any)
	}
	schema, _ := catalog[name].(map[string]any)
	if schema == nil {
		return map[string]any{}
	}
	return schema
}

// ResolveDeep recursively walks node and replaces every $ref with its
// resolved, recursively-resolved target. The visited set holds the pointer
// strings on the active expansion path: a pointer that reappears is replaced
// by a circular-reference sentinel instead of recursing, which guarantees
// termination on self-referential and mutually-referential schemas.
// Warnings go to w. The input tree is never mutated.
func (d *Document) ResolveDeep(node any, visited map[string]bool, w io.Writer) any {
	if visited == nil {
		visited = make(map[string]bool)
	}

	switch v := node.(type) {
	case map[string]any:
		if raw, ok := v["$ref"]; ok {
			ref, _ := raw.(string)
			if visited[ref] {
				fmt.Fprintf(w, "warning: circular reference detected: %s\n", ref)
				return circularSentinel(ref)
			}

			target := d.ResolveRef(ref, w)
			if len(target) == 0 {
				// Unknown or external target: keep the node as-is.
				return copyMap(v)
			}

			visited[ref] = true
			resolved := d.ResolveDeep(target, visited, w)
			delete(visited, ref)
			return resolved
		}

		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = d.ResolveDeep(child, visited, w)
		}
		return out

	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = d.ResolveDeep(child, visited, w)
		}
		return out

	default:
		return node
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
