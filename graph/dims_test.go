package graph

import (
	"context"
	"testing"
)

// ForcePopulateDimensions is the force_estimate=true, free-walk variant a
// host can call ahead of Execute for a best-effort dimension estimate. It
// must succeed in estimating a node that the certain-only path would
// leave unknown, and must not require dependency order to make progress.
func TestForcePopulateDimensionsEstimatesWhatCertainPathCannot(t *testing.T) {
	r := NewRegistry()
	r.Register("estimate", estimateOnlyOps{width: 640, height: 480})
	j := NewJob(WithRegistry(r))

	g := NewGraph()
	a := g.AddNode(NodeOperation)
	nr, _ := g.nodeRef(a)
	nr.OpName = "estimate"

	if err := populateDimensionsWhereCertain(context.Background(), j, g); err != nil {
		t.Fatalf("populateDimensionsWhereCertain: %v", err)
	}
	n, _ := g.Node(a)
	if n.ResultWidth != 0 {
		t.Fatalf("certain-only pass should leave dimensions unknown for estimateOnlyOps, got width=%d", n.ResultWidth)
	}

	if err := j.ForcePopulateDimensions(context.Background(), g); err != nil {
		t.Fatalf("ForcePopulateDimensions: %v", err)
	}
	n, _ = g.Node(a)
	if n.ResultWidth != 640 || n.ResultHeight != 480 {
		t.Errorf("ResultWidth/Height = %d/%d, want 640/480", n.ResultWidth, n.ResultHeight)
	}
}

// Sink nodes (no outbound edges) still get their dimensions computed:
// an encoder must reach OutboundDimensionsKnown before it is allowed to
// execute, so the propagator cannot stop one node short of the sinks.
func TestPopulateDimensionsCoversSinkNodes(t *testing.T) {
	r := newTestRegistry()
	j := NewJob(WithRegistry(r))

	g := NewGraph()
	src := g.AddNode(NodeOperation)
	sink := g.AddNode(NodeOperation)
	srcRef, _ := g.nodeRef(src)
	srcRef.OpName = "decode"
	sinkRef, _ := g.nodeRef(sink)
	sinkRef.OpName = "passthrough"
	if err := g.AddEdge(src, sink, EdgeInputPixels); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if err := populateDimensionsWhereCertain(context.Background(), j, g); err != nil {
		t.Fatalf("populateDimensionsWhereCertain: %v", err)
	}
	n, _ := g.Node(sink)
	if n.ResultWidth != 10 || n.ResultHeight != 20 {
		t.Errorf("sink dimensions = %d/%d, want 10/20 (copied from its input)", n.ResultWidth, n.ResultHeight)
	}
}
