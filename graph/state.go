package graph

// NodeState is a monotone bitset tracking how far a node has progressed
// through dimension-propagation, flatten, optimize, and execute. Flags are
// only ever set, never cleared, for a given node: update_state is pure and
// idempotent, and a node's flag set is non-decreasing across the entire
// life of a job.
type NodeState uint16

const (
	// InputDimensionsKnown is set when every input edge's source has
	// ResultWidth > 0.
	InputDimensionsKnown NodeState = 1 << iota
	// OutboundDimensionsKnown is set when this node has ResultWidth > 0.
	OutboundDimensionsKnown
	// PreOptimizeFlattened is set once pre-optimize flatten has run for
	// this node, or was found inapplicable.
	PreOptimizeFlattened
	// Optimized is set once the optimizer pass has visited this node.
	Optimized
	// PostOptimizeFlattened is set once post-optimize flatten has run for
	// this node, or was found inapplicable.
	PostOptimizeFlattened
	// Executed is set once execution has produced this node's result.
	Executed
)

// Has reports whether every flag in want is set in s.
func (s NodeState) Has(want NodeState) bool {
	return s&want == want
}

// Set returns s with every flag in add also set. Flags already set are
// left untouched — NodeState never clears a bit.
func (s NodeState) Set(add NodeState) NodeState {
	return s | add
}

// readyFor reports whether s satisfies a stage's gate and has not yet
// passed through that stage. Readiness is a mask test, not an equality
// test against the gate: OutboundDimensionsKnown joins the set as soon as
// a node's dimensions land, which can happen before any stage flag is
// set, so a node's full bitset rarely equals a gate exactly.
func (s NodeState) readyFor(gate, stageFlag NodeState) bool {
	return s.Has(gate) && !s.Has(stageFlag)
}

// Composite gates. Each names the exact conjunction of flags a stage
// requires of a node before that stage's own visitor may act on it. They
// deliberately do not include the flag the stage itself would set.

// ReadyForPreOptimizeFlatten gates the pre-optimize flatten stage: a node
// may be flattened once its inputs' dimensions are known.
const ReadyForPreOptimizeFlatten = InputDimensionsKnown

// ReadyForOptimize gates the optimizer stage: a node is eligible for
// optimization once pre-optimize flatten has had a chance to run on it.
const ReadyForOptimize = InputDimensionsKnown | PreOptimizeFlattened

// ReadyForPostOptimizeFlatten gates the post-optimize flatten stage: same
// dimensional precondition as pre-optimize flatten, but only after the
// optimizer has visited the node.
const ReadyForPostOptimizeFlatten = InputDimensionsKnown | PreOptimizeFlattened | Optimized

// ReadyForExecution gates the executor: a node may run once both flatten
// passes and the optimizer have completed and its own output dimensions
// are known.
const ReadyForExecution = InputDimensionsKnown | OutboundDimensionsKnown | PreOptimizeFlattened | Optimized | PostOptimizeFlattened

// updateState recomputes node_id's flags from local data: this node's
// ResultWidth and each predecessor's ResultWidth. It is pure over
// (graph, node_id), idempotent, and safe to call at any point — exactly
// the contract every stage visitor relies on by calling it once on entry.
func updateState(g *Graph, nodeID int32) error {
	n, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}

	if n.ResultWidth > 0 {
		n.State = n.State.Set(OutboundDimensionsKnown)
	}

	if inputDimensionsKnown(g, nodeID) {
		n.State = n.State.Set(InputDimensionsKnown)
	}

	return nil
}

// inputDimensionsKnown reports whether every live input edge's source node
// has known dimensions. A node with no input edges vacuously satisfies this.
func inputDimensionsKnown(g *Graph, nodeID int32) bool {
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Type == EdgeNull || e.To != nodeID {
			continue
		}
		src, err := g.nodeRef(e.From)
		if err != nil || src.ResultWidth <= 0 {
			return false
		}
	}
	return true
}
