package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ExportVersion is the current workflow file format version.
const ExportVersion = 1

// ExportFile is the on-disk workflow document. Importing one replaces the
// entire in-memory graph; it is never merged.
type ExportFile struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ModelName   string    `json:"model_name,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	Version     int       `json:"version"`
	ExportedAt  time.Time `json:"exportedAt"`
}

// Export serializes the graph plus metadata into an indented workflow
// document.
func Export(name, description, modelName string, g Graph, now time.Time) ([]byte, error) {
	doc := ExportFile{
		Name:        name,
		Description: description,
		ModelName:   modelName,
		Nodes:       g.Nodes,
		Edges:       g.Edges,
		Version:     ExportVersion,
		ExportedAt:  now.UTC(),
	}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import parses a workflow document. The content is checked against the
// file schema before decoding so a malformed document is rejected as a
// whole: the caller's graph is never partially applied.
func Import(content []byte) (ExportFile, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(exportFileSchema),
		gojsonschema.NewBytesLoader(content),
	)
	if err != nil {
		return ExportFile{}, fmt.Errorf("parse workflow file: %w", err)
	}
	if !result.Valid() {
		return ExportFile{}, fmt.Errorf("invalid workflow file: %s", schemaProblems(result))
	}

	var doc ExportFile
	if err := json.Unmarshal(content, &doc); err != nil {
		return ExportFile{}, fmt.Errorf("decode workflow file: %w", err)
	}
	return doc, nil
}

// schemaProblems flattens validation errors into one user-facing line,
// keeping only the first few.
func schemaProblems(result *gojsonschema.Result) string {
	const maxShown = 3
	var parts []string
	for i, desc := range result.Errors() {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("and %d more", len(result.Errors())-maxShown))
			break
		}
		parts = append(parts, desc.String())
	}
	return strings.Join(parts, "; ")
}

// exportFileSchema guards the workflow file format. Node payloads are left
// open: kind-specific decoding rejects unknown kinds after the structural
// check passes.
const exportFileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "nodes", "edges"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "model_name": {"type": "string"},
    "version": {"type": "integer", "minimum": 1},
    "exportedAt": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["start", "approval", "condition", "end"]},
          "position": {
            "type": "object",
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"}
            }
          },
          "data": {"type": "object"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "source", "target"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "sourceHandle": {"type": "string"},
          "targetHandle": {"type": "string"},
          "type": {"type": "string"},
          "animated": {"type": "boolean"}
        }
      }
    }
  }
}`
