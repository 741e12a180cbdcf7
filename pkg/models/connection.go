package models

// Connection is a directed edge from one node's output port to another
// node's input port. Stored connections are always normalized so that From
// is the output side.
type Connection struct {
	ID   string  `json:"id"   validate:"required"`
	From PortRef `json:"from" validate:"required"`
	To   PortRef `json:"to"   validate:"required"`
}

// Touches reports whether either endpoint belongs to the given node.
func (c *Connection) Touches(nodeID string) bool {
	return c.From.NodeID == nodeID || c.To.NodeID == nodeID
}

// Joins reports whether the connection joins the same two exact ports,
// regardless of the order the ports are given in.
func (c *Connection) Joins(a, b PortRef) bool {
	return (c.From == a && c.To == b) || (c.From == b && c.To == a)
}
