package graph

// NodeType identifies the operation kind of a Node. The core treats most
// kinds opaquely and dispatches to a NodeOps implementation registered for
// that kind; it special-cases only NodeNull (tombstone) and the decoder/
// encoder kinds, which carry a codec placeholder id that the linker binds.
type NodeType int32

const (
	// NodeNull marks a tombstoned node: skipped by every walker and phase,
	// and excluded from graph_fully_executed.
	NodeNull NodeType = iota
	// NodeDecoder reads pixels from a linked codec into the graph.
	NodeDecoder
	// NodeEncoder writes pixels from the graph into a linked codec.
	NodeEncoder
	// NodeOperation is the generic placeholder for any non-codec image
	// operation (resize, crop, rotate, etc.). Concrete operation kinds are
	// distinguished by the node's OpName and dispatched by that name via
	// the NodeOps registry — the specific operation vocabulary is owned by
	// the external node-operation library, not the core.
	NodeOperation
)

// EdgeType identifies the semantics of an Edge. The core only distinguishes
// "null" (tombstone, ignored everywhere) from every other type, which it
// treats as an ordinary dependency edge for walking and dimension
// propagation purposes.
type EdgeType int32

const (
	// EdgeNull tombstones an edge: walkers and the dimension propagator
	// skip it entirely, exactly like a tombstoned node.
	EdgeNull EdgeType = iota
	// EdgeInputPixels is an ordinary input→output pixel dependency.
	EdgeInputPixels
)

// Node is a single vertex in a job's graph.
//
// Nodes are identified by a stable int32 id within a graph; ids are never
// reused within the lifetime of a graph, including across flatten rewrites
// that tombstone nodes.
type Node struct {
	// Type is the operation kind. A tombstoned node has Type == NodeNull.
	Type NodeType

	// OpName names the concrete operation this node performs (e.g.
	// "resize", "crop"), looked up in the NodeOps registry. Decoder and
	// encoder nodes are dispatched by OpName like any other live node;
	// only NodeNull ignores it.
	OpName string

	// State is the monotone bitset described in state.go.
	State NodeState

	// ResultWidth and ResultHeight are this node's output dimensions.
	// ResultWidth == 0 means dimensions are not yet known.
	ResultWidth  int32
	ResultHeight int32

	// InfoByteIndex indexes into the graph's packed info-buffer, where
	// node-kind-specific parameters are stored (crop rectangles, resample
	// filter choices, whatever the operation needs beyond dimensions).
	// A node with no out-of-band info uses -1.
	InfoByteIndex int32

	// TicksElapsed accumulates wall-clock cost attributed to this node
	// across populate_dimensions and execute calls.
	TicksElapsed int64

	// PlaceholderID is meaningful only for NodeDecoder/NodeEncoder nodes:
	// it names the CodecBinding this node must be linked against. Zero is
	// an ordinary id: Job.AddIO accepts it, and linking fails only when no
	// binding with this id is registered.
	PlaceholderID int32

	// Codec is populated by link_codecs once PlaceholderID resolves to a
	// registered CodecBinding. Re-linking is idempotent: a non-nil Codec is
	// left untouched.
	Codec *CodecBinding
}

// Edge is a directed dependency between two nodes: From's output feeds
// To's input.
type Edge struct {
	From int32
	To   int32
	Type EdgeType
}
