// Package agent provides configuration completeness checks for agent nodes.
package agent

import (
	"fmt"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

// requiredFields lists the config keys that must be non-empty for each agent
// sub-kind. The custom sub-kind is handled separately because either of its
// fields is sufficient.
var requiredFields = map[string][]string{
	models.AgentKindOpenAI:    {"apiKey", "model"},
	models.AgentKindAnthropic: {"apiKey", "model"},
	models.AgentKindOllama:    {"apiUrl", "apiKey", "model"},
	models.AgentKindBedrock:   {"accessKey", "secretKey", "region", "model"},
}

// CheckConfig reports the config keys missing for the agent node to be
// executable. A nil return means the agent is fully configured.
func CheckConfig(node *models.Node) []string {
	if !node.IsAgent() {
		return nil
	}

	if node.SubKind == models.AgentKindCustom {
		if !hasValue(node, "port") && !hasValue(node, "endpoint") {
			return []string{"port or endpoint"}
		}

		return nil
	}

	fields, known := requiredFields[node.SubKind]
	if !known {
		return []string{fmt.Sprintf("unknown agent kind %q", node.SubKind)}
	}

	var missing []string

	for _, field := range fields {
		if node.ConfigString(field) == "" {
			missing = append(missing, field)
		}
	}

	return missing
}

// Configured reports whether the agent node passes its sub-kind completeness
// check.
func Configured(node *models.Node) bool {
	return len(CheckConfig(node)) == 0
}

// hasValue reports a usable config value under key: a non-empty string or
// any number. The editor stores ports as numbers, endpoints as strings.
func hasValue(node *models.Node, key string) bool {
	if node.Config == nil {
		return false
	}

	switch v := node.Config[key].(type) {
	case string:
		return v != ""
	case float64, int:
		return true
	default:
		return false
	}
}
