package graph

import (
	"bytes"
	"context"
	"io"
)

// fakeIO is an in-memory IO implementation used across the package's
// tests. It is not part of the shipped surface — I/O transport is an
// external collaborator per the engine's scope.
type fakeIO struct {
	buf    *bytes.Buffer
	data   []byte // backing storage for reads; rewound via Seek
	pos    int64
	isSink bool // true for in-memory output sinks (OutputBuffer works)
}

func newFakeInput(data []byte) *fakeIO {
	return &fakeIO{data: data}
}

func newFakeOutputSink() *fakeIO {
	return &fakeIO{buf: &bytes.Buffer{}, isSink: true}
}

func (f *fakeIO) Read(ctx context.Context, p []byte) (int, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *fakeIO) Seek(ctx context.Context, offset int64) error {
	f.pos = offset
	return nil
}

func (f *fakeIO) Tell(ctx context.Context) (int64, error) {
	return f.pos, nil
}

func (f *fakeIO) Write(ctx context.Context, p []byte) (int, error) {
	if f.buf == nil {
		f.buf = &bytes.Buffer{}
	}
	return f.buf.Write(p)
}

func (f *fakeIO) OutputBuffer() ([]byte, bool) {
	if !f.isSink {
		return nil, false
	}
	return f.buf.Bytes(), true
}

// fakeSelector recognizes one 8-byte magic signature as codec id 1.
type fakeSelector struct {
	magic    [8]byte
	initErr  error
	initHook func(*CodecBinding)
}

var fakeMagic = [8]byte{'F', 'A', 'K', 'E', 'I', 'M', 'G', 0x01}

func (s *fakeSelector) Select(sig []byte) int32 {
	if len(sig) >= 8 && bytes.Equal(sig[:8], fakeMagic[:]) {
		return 1
	}
	return 0
}

func (s *fakeSelector) Initialize(ctx context.Context, job *Job, binding *CodecBinding) error {
	if s.initHook != nil {
		s.initHook(binding)
	}
	return s.initErr
}

// decoderOps simulates a decoder node: fixed output dimensions, and
// "decodes" by draining its linked codec's IO. Several tests reuse it on
// plain operation nodes purely to seed dimensions; with no codec linked,
// Execute has nothing to drain and succeeds.
type decoderOps struct {
	width, height int32
}

func (d *decoderOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	n, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}
	n.ResultWidth = d.width
	n.ResultHeight = d.height
	return nil
}

func (d *decoderOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (d *decoderOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}

func (d *decoderOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	n, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}
	if n.Codec == nil {
		return nil
	}
	buf := make([]byte, 4096)
	for {
		_, err := n.Codec.IO.Read(ctx, buf)
		if err != nil {
			break
		}
	}
	return nil
}

// passthroughOps simulates a generic single-input operation: its output
// dimensions equal its input's.
type passthroughOps struct{}

func (passthroughOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Type == EdgeNull || e.To != nodeID {
			continue
		}
		src, err := g.Node(e.From)
		if err != nil {
			return err
		}
		if src.ResultWidth > 0 {
			n, err := g.nodeRef(nodeID)
			if err != nil {
				return err
			}
			n.ResultWidth = src.ResultWidth
			n.ResultHeight = src.ResultHeight
		}
	}
	return nil
}

func (passthroughOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (passthroughOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (passthroughOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	return nil
}

// stuckOps never reports dimensions, simulating an operation whose inputs
// never become available — used to exercise the max-passes failure path.
type stuckOps struct{}

func (stuckOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	return nil
}
func (stuckOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (stuckOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (stuckOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	return nil
}

// estimateOnlyOps only reports dimensions when forceEstimate is true,
// simulating an operation that can produce a best-effort guess (e.g. a
// thumbnail sized off a container header) but otherwise waits for
// certainty — used to exercise ForcePopulateDimensions distinctly from
// the certain-only pass-loop path.
type estimateOnlyOps struct {
	width, height int32
}

func (o estimateOnlyOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	if !force {
		return nil
	}
	n, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}
	n.ResultWidth = o.width
	n.ResultHeight = o.height
	return nil
}
func (o estimateOnlyOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (o estimateOnlyOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (o estimateOnlyOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	return nil
}

// encoderOps simulates an encoder node: on execute, resolves its own
// output binding's codec id (if still unresolved) and writes a fixed
// payload through the linked IO.
type encoderOps struct{}

func (e encoderOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	return passthroughOps{}.PopulateDimensions(ctx, g, nodeID, force)
}
func (e encoderOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (e encoderOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}

func (e encoderOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	n, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}
	if n.Codec == nil {
		return NewError(KindGraphInvalid, "encoder node #%d has no linked codec", nodeID)
	}
	if n.Codec.CodecID == 0 {
		n.Codec.CodecID = 1
	}
	// Lead with the magic so the artifact re-sniffs as the same format.
	_, err = n.Codec.IO.Write(ctx, append(append([]byte{}, fakeMagic[:]...), []byte("pixels")...))
	return err
}

// rewritingOps simulates a node-operation module that actually replaces
// its node with a single differently-named node, carrying forward the
// original's dimensions and state flags — unlike every other test double
// in this file, whose PreOptimizeFlatten/PostOptimizeFlatten report
// "inapplicable" by returning g unchanged. Used to exercise the
// quit-and-restart branch of preOptimizeFlatten/postOptimizeFlatten.
type rewritingOps struct {
	replacementOpName string
}

func (r rewritingOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	return passthroughOps{}.PopulateDimensions(ctx, g, nodeID, force)
}

func (r rewritingOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return r.rewrite(g, nodeID)
}

func (r rewritingOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return r.rewrite(g, nodeID)
}

func (r rewritingOps) rewrite(g *Graph, nodeID int32) (*Graph, error) {
	orig, err := g.nodeRef(nodeID)
	if err != nil {
		return g, err
	}
	newID := g.AddNode(NodeOperation)
	nr, err := g.nodeRef(newID)
	if err != nil {
		return g, err
	}
	nr.OpName = r.replacementOpName
	nr.ResultWidth = orig.ResultWidth
	nr.ResultHeight = orig.ResultHeight
	nr.State = orig.State

	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Type == EdgeNull {
			continue
		}
		if e.From == nodeID {
			e.From = newID
		}
		if e.To == nodeID {
			e.To = newID
		}
	}
	if err := g.Tombstone(nodeID); err != nil {
		return g, err
	}
	return g, nil
}

func (r rewritingOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	return nil
}

// invalidRewriteOps simulates a buggy node-operation module whose
// PostOptimizeFlatten grows the node slice (a real rewrite, per
// graphRewritten) but leaves a dangling edge behind — used to exercise
// postOptimizeFlatten's post-rewrite Graph.Validate call.
type invalidRewriteOps struct{}

func (invalidRewriteOps) PopulateDimensions(ctx context.Context, g *Graph, nodeID int32, force bool) error {
	return passthroughOps{}.PopulateDimensions(ctx, g, nodeID, force)
}
func (invalidRewriteOps) PreOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	return g, nil
}
func (invalidRewriteOps) PostOptimizeFlatten(ctx context.Context, g *Graph, nodeID int32) (*Graph, error) {
	g.AddNode(NodeOperation)
	g.Edges = append(g.Edges, Edge{From: nodeID, To: 9999, Type: EdgeInputPixels})
	return g, nil
}
func (invalidRewriteOps) Execute(ctx context.Context, job *Job, g *Graph, nodeID int32) error {
	return nil
}

// fakeRenderer records which graph versions it was asked to render.
type fakeRenderer struct {
	versions []int
}

func (r *fakeRenderer) RenderPNG(ctx context.Context, g *Graph, version int) error {
	r.versions = append(r.versions, version)
	return nil
}

// fakeClock is a deterministic Clock for tests: each call to NowTicks
// advances by a fixed step.
type fakeClock struct {
	tick int64
}

func (c *fakeClock) NowTicks() int64 {
	c.tick++
	return c.tick
}
