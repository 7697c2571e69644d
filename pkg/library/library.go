// Package library provides the authoritative catalog of node type definitions.
package library

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/waflow/waflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed catalog.json
var defaultCatalog []byte

//go:embed catalog_schema.json
var catalogSchema []byte

// Library answers "does this node type exist, and what does it require?".
// Loaded once at startup; read-only afterwards, so concurrent readers need
// no locking.
type Library struct {
	definitions map[string]*models.NodeDefinition
	order       []string
}

type catalogDocument struct {
	Nodes map[string]*models.NodeDefinition `json:"nodes"`
}

// Load parses a JSON catalog document into a Library. The document is
// checked against the embedded catalog schema before decoding; callers
// should treat a load failure as fatal since the process cannot serve
// validation requests without a catalog.
func Load(source []byte) (*Library, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogSchema),
		gojsonschema.NewBytesLoader(source),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node catalog: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, fmt.Errorf("invalid node catalog: %s", strings.Join(details, "; "))
	}

	var doc catalogDocument
	if err := json.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode node catalog: %w", err)
	}

	lib := &Library{
		definitions: make(map[string]*models.NodeDefinition, len(doc.Nodes)),
		order:       make([]string, 0, len(doc.Nodes)),
	}

	for nodeType, def := range doc.Nodes {
		def.Type = nodeType
		lib.definitions[nodeType] = def
		lib.order = append(lib.order, nodeType)
	}

	// The catalog is a JSON object, so decoding order is not stable.
	sort.Strings(lib.order)

	return lib, nil
}

// LoadDefault loads the embedded WhatsApp node catalog.
func LoadDefault() (*Library, error) {
	return Load(defaultCatalog)
}

// LoadFile loads a catalog from a JSON file on disk.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node catalog %s: %w", path, err)
	}

	return Load(data)
}

// Get returns the definition for a node type.
func (l *Library) Get(nodeType string) (*models.NodeDefinition, bool) {
	def, ok := l.definitions[nodeType]

	return def, ok
}

// Exists reports whether a node type is present in the catalog.
func (l *Library) Exists(nodeType string) bool {
	_, ok := l.definitions[nodeType]

	return ok
}

// List returns all definitions, optionally filtered by category.
func (l *Library) List(categories ...models.Category) []*models.NodeDefinition {
	defs := make([]*models.NodeDefinition, 0, len(l.order))

	for _, nodeType := range l.order {
		def := l.definitions[nodeType]

		if len(categories) == 0 {
			defs = append(defs, def)

			continue
		}

		for _, category := range categories {
			if def.Category == category {
				defs = append(defs, def)

				break
			}
		}
	}

	return defs
}

// Types returns the sorted list of known node type keys.
func (l *Library) Types() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)

	return out
}

// Len returns the number of definitions in the catalog.
func (l *Library) Len() int {
	return len(l.definitions)
}
