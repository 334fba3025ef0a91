// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const minimalJSON = `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}, "paths": {}}`

const minimalYAML = `swagger: "2.0"
info:
  title: T
  version: "1"
paths:
  /pets:
    get:
      summary: List pets
`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		wantDialect Dialect
		wantErr     bool
	}{
		{"json openapi3", "spec.json", minimalJSON, DialectOpenAPI3, false},
		{"yaml swagger2", "spec.yaml", minimalYAML, DialectSwagger2, false},
		{"yml extension", "spec.yml", minimalYAML, DialectSwagger2, false},
		{"unsupported extension", "spec.txt", minimalJSON, "", true},
		{"malformed json", "spec.json", "{not json", "", true},
		{"empty document", "spec.json", "{}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Load(context.Background(), writeSpec(t, tt.file, tt.content), nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if doc.Dialect != tt.wantDialect {
				t.Errorf("dialect = %q, want %q", doc.Dialect, tt.wantDialect)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadURL(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		wantDialect Dialect
	}{
		{"json content type", "/spec", "application/json", minimalJSON, DialectOpenAPI3},
		{"yaml content type", "/spec", "application/yaml", minimalYAML, DialectSwagger2},
		{"json extension no content type", "/spec.json", "text/plain", minimalJSON, DialectOpenAPI3},
		{"sniffed json", "/spec", "text/plain", minimalJSON, DialectOpenAPI3},
		{"sniffed yaml", "/spec", "text/plain", minimalYAML, DialectSwagger2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			doc, err := Load(context.Background(), srv.URL+tt.path, srv.Client())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if doc.Dialect != tt.wantDialect {
				t.Errorf("dialect = %q, want %q", doc.Dialect, tt.wantDialect)
			}
		})
	}
}

func TestLoadURLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Load(context.Background(), srv.URL+"/spec.json", srv.Client()); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/spec.json", true},
		{"http://localhost:8080/openapi.yaml", true},
		{"./specs/petstore.json", false},
		{"/abs/path/spec.yaml", false},
		{"spec.json", false},
	}

	for _, tt := range tests {
		if got := IsURL(tt.in); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPathsAbsent(t *testing.T) {
	d := &Document{Root: map[string]any{"swagger": "2.0"}}
	if got := d.Paths(); len(got) != 0 {
		t.Errorf("Paths() on pathless doc = %v", got)
	}
}
