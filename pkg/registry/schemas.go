package registry

import (
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/nodes/router"
)

// kindSchemas declares the config schema per node kind. Input and output
// nodes carry no configuration worth constraining.
func kindSchemas() map[models.NodeKind]map[string]any {
	return map[models.NodeKind]map[string]any{
		models.NodeKindRouter: {
			"type": "object",
			"properties": map[string]any{
				router.KeyStrategy: map[string]any{
					"type": "string",
					"enum": []string{"keyword", "random", "content-type", "ai"},
				},
				router.KeyOutputPorts: map[string]any{
					"type":    "integer",
					"minimum": router.MinOutputPorts,
				},
				router.KeyRules: map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"pattern": map[string]any{"type": "string"},
							"patternKind": map[string]any{
								"type": "string",
								"enum": []string{"contains", "startsWith", "endsWith", "exactMatch", "regex"},
							},
							"port": map[string]any{"type": "integer", "minimum": 0},
						},
					},
				},
				router.KeyWeights: map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "number", "minimum": 0},
				},
				router.KeyContentTypes: map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"contentType": map[string]any{"type": "string"},
							"port":        map[string]any{"type": "integer", "minimum": 0},
						},
					},
				},
				router.KeyPrompt: map[string]any{"type": "string"},
			},
		},
		models.NodeKindTool: {
			"type": "object",
		},
	}
}

// agentSchemas declares the config schema per agent sub-kind. These express
// the field shapes; required-field completeness for running is re-checked by
// the network validator so that half-configured agents can still be saved.
func agentSchemas() map[string]map[string]any {
	credentialed := func(fields ...string) map[string]any {
		properties := map[string]any{}
		for _, field := range fields {
			properties[field] = map[string]any{"type": "string"}
		}

		return map[string]any{
			"type":       "object",
			"properties": properties,
		}
	}

	return map[string]map[string]any{
		models.AgentKindOpenAI:    credentialed("apiKey", "model"),
		models.AgentKindAnthropic: credentialed("apiKey", "model"),
		models.AgentKindOllama:    credentialed("apiUrl", "apiKey", "model"),
		models.AgentKindBedrock:   credentialed("accessKey", "secretKey", "region", "model"),
		models.AgentKindCustom: {
			"type": "object",
			"properties": map[string]any{
				"endpoint": map[string]any{"type": "string"},
				"port":     map[string]any{"type": []string{"integer", "string"}},
			},
		},
	}
}
