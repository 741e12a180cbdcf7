package models

// Network is the serialized shape sent to the execution service and used
// for export. Field names follow the editor wire format.
type Network struct {
	Name        string              `json:"name"`
	Nodes       []NetworkNode       `json:"nodes"`
	Connections []NetworkConnection `json:"connections"`
}

// NetworkNode is the wire form of a node.
type NetworkNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	SubType  string         `json:"subType,omitempty"`
	Position Position       `json:"position"`
	Config   map[string]any `json:"config"`
}

// NetworkConnection is the wire form of a connection. Port numbers are only
// carried for multi-port (router) endpoints.
type NetworkConnection struct {
	SourceNode       string `json:"sourceNode"`
	SourcePort       string `json:"sourcePort"`
	SourcePortNumber *int   `json:"sourcePortNumber,omitempty"`
	TargetNode       string `json:"targetNode"`
	TargetPort       string `json:"targetPort"`
	TargetPortNumber *int   `json:"targetPortNumber,omitempty"`
	EdgeType         string `json:"edgeType"`
}

// ExportNetwork serializes a set of nodes and connections into the wire
// format. Router output ports keep their index in SourcePortNumber so the
// executor can tell the branches apart.
func ExportNetwork(name string, nodes []*Node, connections []*Connection) Network {
	network := Network{
		Name:        name,
		Nodes:       make([]NetworkNode, 0, len(nodes)),
		Connections: make([]NetworkConnection, 0, len(connections)),
	}

	routers := make(map[string]bool)

	for _, node := range nodes {
		network.Nodes = append(network.Nodes, NetworkNode{
			ID:       node.ID,
			Type:     string(node.Kind),
			SubType:  node.SubKind,
			Position: node.Position,
			Config:   node.Config,
		})

		if node.IsRouter() {
			routers[node.ID] = true
		}
	}

	for _, conn := range connections {
		wire := NetworkConnection{
			SourceNode: conn.From.NodeID,
			SourcePort: string(conn.From.Direction),
			TargetNode: conn.To.NodeID,
			TargetPort: string(conn.To.Direction),
			EdgeType:   "default",
		}

		if routers[conn.From.NodeID] {
			index := conn.From.Index
			wire.SourcePortNumber = &index
		}

		if routers[conn.To.NodeID] {
			index := conn.To.Index
			wire.TargetPortNumber = &index
		}

		network.Connections = append(network.Connections, wire)
	}

	return network
}
