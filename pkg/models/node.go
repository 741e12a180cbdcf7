// Package models defines the core domain models for the agent-network canvas.
package models

// NodeKind represents the kind of a placed node.
type NodeKind string

const (
	NodeKindAgent  NodeKind = "agent"
	NodeKindTool   NodeKind = "tool"
	NodeKindInput  NodeKind = "input"
	NodeKindOutput NodeKind = "output"
	NodeKindRouter NodeKind = "router"
)

// Agent sub-kinds identify the backing provider.
const (
	AgentKindOpenAI    = "openai"
	AgentKindOllama    = "ollama"
	AgentKindAnthropic = "anthropic"
	AgentKindBedrock   = "bedrock"
	AgentKindCustom    = "custom"
)

// Tool sub-kinds.
const (
	ToolKindSearch     = "search"
	ToolKindCalculator = "calculator"
	ToolKindDatabase   = "database"
	ToolKindRouterTool = "router-tool"
)

// Position is a 2D coordinate in canvas/world space, decoupled from pan/zoom.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a placed unit on the canvas.
type Node struct {
	ID       string         `json:"id"       validate:"required"`
	Kind     NodeKind       `json:"kind"     validate:"required"`
	SubKind  string         `json:"sub_kind,omitempty"`
	Name     string         `json:"name"`
	Position Position       `json:"position"`
	Config   map[string]any `json:"config"`
}

func (n *Node) IsAgent() bool  { return n.Kind == NodeKindAgent }
func (n *Node) IsRouter() bool { return n.Kind == NodeKindRouter }
func (n *Node) IsInput() bool  { return n.Kind == NodeKindInput }
func (n *Node) IsOutput() bool { return n.Kind == NodeKindOutput }

// HasInputPort reports whether the node exposes an input port. Input-kind
// nodes are pure sources and have none.
func (n *Node) HasInputPort() bool {
	return n.Kind != NodeKindInput
}

// HasOutputPort reports whether the node exposes at least one output port.
// Output-kind nodes are pure sinks and have none.
func (n *Node) HasOutputPort() bool {
	return n.Kind != NodeKindOutput
}

// ConfigString returns a string config value, or "" when absent or not a string.
func (n *Node) ConfigString(key string) string {
	if n.Config == nil {
		return ""
	}

	s, _ := n.Config[key].(string)

	return s
}
