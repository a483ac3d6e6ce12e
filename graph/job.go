package graph

import (
	"context"
	"sync/atomic"

	"github.com/dshills/imageflow-go/graph/emit"
	"github.com/dshills/imageflow-go/graph/store"
)

var nextJobID int64

// Renderer is the external debug-sink collaborator that renders a graph's
// current shape to a PNG, invoked when RenderLastGraph is set. Rendering
// is out of scope for the core engine itself; callers that want it wire in
// an implementation via WithRenderer.
type Renderer interface {
	RenderPNG(ctx context.Context, g *Graph, version int) error
}

// Job is a computation context binding a graph to I/O endpoints and
// codecs, with recording and pass-limit configuration. A Job is created
// empty, populated with I/O bindings via AddIO, driven by Execute, and
// eventually released via Destroy, which runs every registered release
// function in reverse registration order. Go's garbage collector owns
// memory; only non-memory resources (recorder connections, open files
// the caller handed off) need explicit release.
type Job struct {
	id int64

	maxPasses        int
	nextGraphVersion int
	currentPass      int

	recordGraphVersions bool
	recordFrameImages   bool
	renderLastGraph     bool
	renderGraphVersions bool
	renderAnimatedGraph bool

	codecs        []*CodecBinding
	registry      *Registry
	codecSelector CodecSelector
	emitter       emit.Emitter
	recorder      store.Recorder
	renderer      Renderer
	metrics       *Metrics
	clock         Clock
	tickTracker   *TickTracker

	releasers []func() error
}

// NewJob returns a fresh job with defaults: no recording, max_passes=6,
// a disabled metrics collector, a null emitter, and a real wall-clock
// tick source.
func NewJob(opts ...Option) *Job {
	j := &Job{
		id:          atomic.AddInt64(&nextJobID, 1) - 1,
		maxPasses:   6,
		registry:    NewRegistry(),
		emitter:     emit.NewNullEmitter(),
		metrics:     NewMetrics(nil),
		clock:       newRealClock(),
		tickTracker: NewTickTracker(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ID returns the job's monotonically increasing internal id.
func (j *Job) ID() int64 { return j.id }

// Destroy releases every resource registered as owned by the job, in
// reverse registration order, and detaches the job's recorder. Destroy is
// idempotent: calling it twice is safe, though only the first call runs
// the release functions.
func (j *Job) Destroy() error {
	var firstErr error
	for i := len(j.releasers) - 1; i >= 0; i-- {
		if err := j.releasers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	j.releasers = nil
	if j.recorder != nil {
		if err := j.recorder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		j.recorder = nil
	}
	return firstErr
}

// registerReleaser records fn to run on Destroy, arena-of-closures style.
func (j *Job) registerReleaser(fn func() error) {
	j.releasers = append(j.releasers, fn)
}

// Execute drives the fixed-point pass loop to completion: link codecs,
// then repeatedly run dims → pre_flatten → dims → optimize → dims →
// post_flatten → dims → execute until every live node reports Executed or
// max_passes is exhausted. The returned *Graph must replace every
// reference the caller holds to its argument — flatten phases may return
// a different graph than the one passed in.
func (j *Job) Execute(ctx context.Context, g *Graph) (*Graph, error) {
	j.currentPass = 0

	// A graph with no live nodes has nothing to observe: skip the entry
	// notification so next_graph_version stays at 0 for a trivial,
	// already-complete job (e.g. a lone tombstoned node).
	if hasLiveNode(g) {
		j.notifyGraphChanged(ctx, g)
	}
	if err := j.linkCodecs(g); err != nil {
		return g, err
	}

	passes := 0
	for !g.FullyExecuted() {
		j.currentPass = passes + 1
		if passes >= j.maxPasses {
			j.metrics.observeFullyExecuted(false)
			return g, NewError(KindMaxPassesExceeded, "graph did not reach fully-executed state within %d passes", j.maxPasses)
		}

		if err := populateDimensionsWhereCertain(ctx, j, g); err != nil {
			return g, Wrap(err, "populate_dimensions_where_certain")
		}
		j.notifyGraphChanged(ctx, g)

		next, err := preOptimizeFlatten(ctx, j, g)
		if err != nil {
			return g, Wrap(err, "pre_optimize_flatten")
		}
		g = next
		j.notifyGraphChanged(ctx, g)

		if err := populateDimensionsWhereCertain(ctx, j, g); err != nil {
			return g, Wrap(err, "populate_dimensions_where_certain")
		}
		j.notifyGraphChanged(ctx, g)

		if err := optimize(ctx, j, g); err != nil {
			return g, Wrap(err, "optimize")
		}
		j.notifyGraphChanged(ctx, g)

		if err := populateDimensionsWhereCertain(ctx, j, g); err != nil {
			return g, Wrap(err, "populate_dimensions_where_certain")
		}
		j.notifyGraphChanged(ctx, g)

		next, err = postOptimizeFlatten(ctx, j, g)
		if err != nil {
			return g, Wrap(err, "post_optimize_flatten")
		}
		g = next
		j.notifyGraphChanged(ctx, g)

		if err := populateDimensionsWhereCertain(ctx, j, g); err != nil {
			return g, Wrap(err, "populate_dimensions_where_certain")
		}
		j.notifyGraphChanged(ctx, g)

		if err := executeWhereCertain(ctx, j, g); err != nil {
			return g, Wrap(err, "execute_where_certain")
		}
		passes++

		j.notifyGraphChanged(ctx, g)
		j.metrics.observePass()
	}

	j.metrics.observeFullyExecuted(true)

	if j.nextGraphVersion > 0 && j.renderLastGraph && j.renderer != nil {
		if err := j.renderer.RenderPNG(ctx, g, j.nextGraphVersion-1); err != nil {
			return g, Wrap(err, "render_last_graph")
		}
	}
	return g, nil
}

// notifyGraphChanged bumps next_graph_version and, when recording is
// enabled, snapshots the graph. It never fails the pass loop: a recorder
// error is emitted as an event rather than propagated, since losing a
// debug snapshot should not abort an otherwise-successful job.
func (j *Job) notifyGraphChanged(ctx context.Context, g *Graph) {
	version := j.nextGraphVersion
	j.nextGraphVersion++

	j.emitter.Emit(emit.Event{
		JobID: jobIDString(j.id),
		Pass:  j.currentPass,
		Msg:   "graph_changed",
		Meta:  map[string]interface{}{"graph_version": version},
	})

	if j.recordGraphVersions && j.recorder != nil {
		data := encodeGraphSnapshot(g)
		if err := j.recorder.SaveVersion(ctx, store.VersionSnapshot{JobID: j.id, Version: version, Data: data}); err != nil {
			j.emitter.Emit(emit.Event{
				JobID: jobIDString(j.id),
				Pass:  j.currentPass,
				Msg:   "recorder_error",
				Meta:  map[string]interface{}{"error": err.Error(), "graph_version": version},
			})
		}
	}

	if j.renderGraphVersions && j.renderer != nil {
		if err := j.renderer.RenderPNG(ctx, g, version); err != nil {
			j.emitter.Emit(emit.Event{
				JobID: jobIDString(j.id),
				Pass:  j.currentPass,
				Msg:   "renderer_error",
				Meta:  map[string]interface{}{"error": err.Error(), "graph_version": version},
			})
		}
	}

	if j.recordFrameImages && j.recorder != nil {
		for i := range g.Nodes {
			if g.Nodes[i].Type == NodeNull {
				continue
			}
			_ = j.recorder.SaveFrame(ctx, store.FrameSnapshot{JobID: j.id, Version: version, NodeID: int32(i)})
		}
	}
}

// notifyNodeComplete reports a single node's execution completion to the
// emitter, including its accumulated TicksElapsed.
func (j *Job) notifyNodeComplete(ctx context.Context, g *Graph, nodeID int32) {
	n, err := g.Node(nodeID)
	if err != nil {
		return
	}
	j.emitter.Emit(emit.Event{
		JobID:  jobIDString(j.id),
		Pass:   j.currentPass,
		NodeID: nodeIDString(nodeID),
		Msg:    "node_executed",
		Meta:   map[string]interface{}{"duration_ticks": n.TicksElapsed},
	})
}

func hasLiveNode(g *Graph) bool {
	for i := range g.Nodes {
		if g.Nodes[i].Type != NodeNull {
			return true
		}
	}
	return false
}

func jobIDString(id int64) string {
	return strconvInt64(id)
}

// encodeGraphSnapshot renders an opaque debug representation of the graph
// for recorder storage. The core treats this payload as a byte blob; it
// has no bearing on execution semantics.
func encodeGraphSnapshot(g *Graph) []byte {
	buf := make([]byte, 0, 16*len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		buf = append(buf, byte(n.Type), byte(n.State), byte(n.State>>8))
	}
	return buf
}
