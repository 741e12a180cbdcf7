// Package registry holds per-kind JSON schemas for node configurations and
// validates config payloads at the API boundary.
package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

// Registry maps node kinds (and agent sub-kinds) to config schemas.
type Registry struct {
	kindSchemas  map[models.NodeKind]map[string]any
	agentSchemas map[string]map[string]any
}

// NewRegistry creates a registry loaded with the built-in node schemas.
func NewRegistry() *Registry {
	return &Registry{
		kindSchemas:  kindSchemas(),
		agentSchemas: agentSchemas(),
	}
}

// HealthCheck reports whether the registry holds schemas for every node kind.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.kindSchemas) == 0 {
		return "No node schemas registered", false
	}

	return fmt.Sprintf("%d node kind schemas registered", len(r.kindSchemas)), true
}

// SchemaFor returns the config schema for a node kind and sub-kind, or nil
// when the kind carries no schema.
func (r *Registry) SchemaFor(kind models.NodeKind, subKind string) map[string]any {
	if kind == models.NodeKindAgent {
		if schema, ok := r.agentSchemas[subKind]; ok {
			return schema
		}
	}

	return r.kindSchemas[kind]
}

// ValidateConfig validates a config payload against the schema for the node
// kind. Kinds without a schema accept anything.
func (r *Registry) ValidateConfig(kind models.NodeKind, subKind string, config map[string]any) error {
	schema := r.SchemaFor(kind, subKind)
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", kind, err)
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid %s config: %s", kind, strings.Join(details, "; "))
	}

	return nil
}
