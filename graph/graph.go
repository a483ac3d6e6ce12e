package graph

// Graph is a DAG of Nodes and typed Edges. It is the unit flatten and
// optimize rewrite; callers must treat every flatten call as potentially
// returning a different *Graph than the one passed in, and re-read through
// the returned value. Because AddNode may grow the node slice past its
// current capacity, never cache node pointers across a mutation boundary.
type Graph struct {
	Nodes []Node
	Edges []Edge

	// InfoBytes is the packed side-buffer referenced by Node.InfoByteIndex.
	// The core itself never interprets these bytes; it is opaque storage
	// owned by the node-operation and codec-module collaborators.
	InfoBytes []byte
}

// NewGraph returns an empty graph ready to accept nodes and edges.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode appends a new node of the given type and returns its id.
func (g *Graph) AddNode(t NodeType) int32 {
	id := int32(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{Type: t, InfoByteIndex: -1})
	return id
}

// AddEdge appends a new directed edge from → to of the given type.
func (g *Graph) AddEdge(from, to int32, t EdgeType) error {
	if _, err := g.nodeRef(from); err != nil {
		return err
	}
	if _, err := g.nodeRef(to); err != nil {
		return err
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to, Type: t})
	return nil
}

// Tombstone marks a node as Null and tombstones every edge touching it.
// Tombstoned nodes and edges are skipped everywhere: walkers, dimension
// propagation, the optimizer, and the executor. Flatten rewrites use this
// to retire a high-level node once its replacement subgraph is wired in.
func (g *Graph) Tombstone(nodeID int32) error {
	n, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}
	n.Type = NodeNull
	for i := range g.Edges {
		if g.Edges[i].From == nodeID || g.Edges[i].To == nodeID {
			g.Edges[i].Type = EdgeNull
		}
	}
	return nil
}

// nodeRef returns a pointer to the live node storage for id, or a
// KindGraphInvalid error if id is out of range.
func (g *Graph) nodeRef(id int32) (*Node, error) {
	if id < 0 || int(id) >= len(g.Nodes) {
		return nil, NewError(KindGraphInvalid, "node id %d out of range (graph has %d nodes)", id, len(g.Nodes))
	}
	return &g.Nodes[id], nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id int32) (Node, error) {
	n, err := g.nodeRef(id)
	if err != nil {
		return Node{}, err
	}
	return *n, nil
}

// NextNodeID returns the id that would be assigned to the next AddNode
// call. The walkers do not consult it: each walk call visits the live nodes
// present when it started, so nodes a flatten inserts mid-walk are not
// visited until the next walk call.
func (g *Graph) NextNodeID() int32 {
	return int32(len(g.Nodes))
}

// Validate checks the structural invariants every graph must satisfy: every
// edge references live node ids, and every node's InfoByteIndex (when set)
// lies fully inside InfoBytes. It does not check acyclicity — the engine
// assumes inputs are acyclic and defers verification, per design.
func (g *Graph) Validate() error {
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Type == EdgeNull {
			continue
		}
		if e.From < 0 || e.To < 0 || int(e.From) >= len(g.Nodes) || int(e.To) >= len(g.Nodes) {
			return NewError(KindGraphInvalid, "edge %d references out-of-range node (from=%d, to=%d, node count=%d)", i, e.From, e.To, len(g.Nodes))
		}
		if g.Nodes[e.From].Type == NodeNull || g.Nodes[e.To].Type == NodeNull {
			return NewError(KindGraphInvalid, "edge %d references tombstoned node (from=%d, to=%d)", i, e.From, e.To)
		}
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.InfoByteIndex < 0 {
			continue
		}
		if int(n.InfoByteIndex) >= len(g.InfoBytes) {
			return NewError(KindGraphInvalid, "node #%d info_byte_index %d out of range (info buffer has %d bytes)", i, n.InfoByteIndex, len(g.InfoBytes))
		}
	}
	return nil
}

// FullyExecuted reports whether every live (non-null) node carries the
// Executed flag.
func (g *Graph) FullyExecuted() bool {
	for i := range g.Nodes {
		if g.Nodes[i].Type == NodeNull {
			continue
		}
		if !g.Nodes[i].State.Has(Executed) {
			return false
		}
	}
	return true
}
