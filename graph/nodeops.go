package graph

import "context"

// NodeOps is the external node-operation collaborator: one implementation
// per operation kind (resize, crop, rotate, the specific image-processing
// vocabulary), registered against an OpName and invoked by the core at the
// appropriate phase. The core never implements an operation itself — it
// only calls these four methods at the points the state machine says a
// node is ready for them.
//
// Implementations must be pure with respect to graph structure: flatten
// methods may grow the graph (new nodes/edges, tombstoning the node they
// replace) but must not mutate nodes other than through the Graph they are
// handed.
type NodeOps interface {
	// PopulateDimensions computes nodeID's output dimensions from its
	// predecessors' dimensions, writing ResultWidth/ResultHeight on
	// success. When forceEstimate is false, an operation that cannot yet
	// determine dimensions (e.g. a predecessor's dimensions are still
	// unknown) simply leaves ResultWidth at 0 rather than failing. When
	// forceEstimate is true (force_populate_dimensions), the operation
	// must produce its best estimate even if normally it would wait.
	PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, forceEstimate bool) error

	// PreOptimizeFlatten rewrites nodeID into a subgraph of lower-level
	// nodes, running before the optimizer pass. Implementations that have
	// nothing to do at this stage (most operations) return g unchanged
	// and do not tombstone nodeID.
	PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error)

	// PostOptimizeFlatten is the post-optimize-pass counterpart to
	// PreOptimizeFlatten, with the same contract.
	PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error)

	// Execute runs nodeID's operation against already-executed
	// predecessor results, producing this node's result.
	Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error
}

// Registry maps an OpName to the NodeOps implementation handling it.
// Decoder and encoder nodes are dispatched through the registry exactly
// like any other node kind; their OpName must resolve to a NodeOps whose
// Execute method knows to reach into the node's linked CodecBinding (see
// codec.go) to do its work.
type Registry struct {
	ops map[string]NodeOps
}

// NewRegistry returns an empty node-operation registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]NodeOps)}
}

// Register associates name with ops. Registering the same name twice
// replaces the previous registration.
func (r *Registry) Register(name string, ops NodeOps) {
	r.ops[name] = ops
}

// Lookup returns the NodeOps registered for name, or nil if none.
func (r *Registry) Lookup(name string) NodeOps {
	return r.ops[name]
}
