package catalog

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const schemaURL = "schema://lessonplay/catalog.json"

// catalogSchema describes the on-disk catalog document. Structural
// problems are rejected here; authoring mistakes that can be resolved
// deterministically are reported by Check instead.
var catalogSchema = map[string]any{
	"type":     "object",
	"required": []any{"lessons"},
	"properties": map[string]any{
		"lessons": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "title", "video"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string", "minLength": 1},
					"title":    map[string]any{"type": "string"},
					"video":    map[string]any{"type": "string"},
					"duration": map[string]any{"type": "integer", "minimum": 0},
					"questions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []any{"id", "show_at", "options", "correct"},
							"properties": map[string]any{
								"id":      map[string]any{"type": "string", "minLength": 1},
								"show_at": map[string]any{"type": "integer", "minimum": 0},
								"body":    map[string]any{"type": "string"},
								"image":   map[string]any{"type": "string"},
								"options": map[string]any{
									"type":     "array",
									"items":    map[string]any{"type": "string"},
									"minItems": 2,
									"maxItems": OptionCount,
								},
								"correct": map[string]any{"type": "integer", "minimum": 0},
								"variants": map[string]any{
									"type": "array",
									"items": map[string]any{
										"type":     "object",
										"required": []any{"id", "options", "correct"},
										"properties": map[string]any{
											"id":      map[string]any{"type": "integer", "minimum": 1},
											"body":    map[string]any{"type": "string"},
											"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
											"correct": map[string]any{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, catalogSchema); err != nil {
			compileErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Load reads and validates a catalog file. Authoring issues that do not
// prevent playback are returned alongside the catalog.
func Load(path string) (*Catalog, []Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, []Issue, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return nil, nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, nil, fmt.Errorf("invalid catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, nil, fmt.Errorf("decode catalog: %w", err)
	}

	return &cat, Check(&cat), nil
}

// Save writes the catalog back as YAML.
func Save(path string, cat *Catalog) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
