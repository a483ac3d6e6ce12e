package graph

import (
	"github.com/dshills/imageflow-go/graph/emit"
	"github.com/dshills/imageflow-go/graph/store"
)

// Option is a functional option for configuring a Job at creation time.
//
// Functional options keep NewJob's surface small while letting callers opt
// into recording, observability, and custom clocks only when they need
// them:
//
//	job := graph.NewJob(
//	    graph.WithRegistry(registry),
//	    graph.WithCodecSelector(selector),
//	    graph.WithMaxPasses(10),
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	)
type Option func(*Job)

// WithMaxPasses overrides the default of 6 fixed-point pass-loop
// iterations Execute will attempt before failing with
// KindMaxPassesExceeded.
func WithMaxPasses(n int) Option {
	return func(j *Job) { j.maxPasses = n }
}

// WithRegistry supplies the NodeOps registry Execute dispatches operation,
// flatten, and dimension calls through.
func WithRegistry(r *Registry) Option {
	return func(j *Job) { j.registry = r }
}

// WithCodecSelector supplies the codec-module collaborator AddIO uses to
// sniff input signatures and initialize resolved bindings.
func WithCodecSelector(s CodecSelector) Option {
	return func(j *Job) { j.codecSelector = s }
}

// WithEmitter sets the observability sink notify_graph_changed and
// notify_node_complete report events to. Defaults to emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(j *Job) { j.emitter = e }
}

// WithRecorder sets the persistence backend used to snapshot graph
// versions and node frames when recording is enabled via
// ConfigureRecording. Defaults to nil (no recording possible regardless
// of flags).
func WithRecorder(r store.Recorder) Option {
	return func(j *Job) { j.recorder = r }
}

// WithMetrics attaches a Prometheus metrics collector. Defaults to a
// disabled collector that records nothing.
func WithMetrics(m *Metrics) Option {
	return func(j *Job) { j.metrics = m }
}

// WithRenderer supplies the debug graph-to-image renderer invoked when
// RenderLastGraph is set and at least one graph mutation occurred. Image
// rendering is an external collaborator; without a renderer configured,
// RenderLastGraph is silently a no-op.
func WithRenderer(r Renderer) Option {
	return func(j *Job) { j.renderer = r }
}

// WithClock overrides the tick source used for TicksElapsed accounting.
// Intended for tests that need deterministic timing.
func WithClock(c Clock) Option {
	return func(j *Job) { j.clock = c }
}

// RecordingConfig configures which debug artifacts a job records and
// renders during execution.
type RecordingConfig struct {
	RecordGraphVersions bool
	RecordFrameImages   bool
	RenderLastGraph     bool
	RenderGraphVersions bool
	RenderAnimatedGraph bool
}

// ConfigureRecording sets the job's recording flags, clamping
// RenderGraphVersions to require RecordGraphVersions and
// RenderAnimatedGraph to require the clamped RenderGraphVersions — the
// flags are ANDed together rather than validated, so passing an
// inconsistent combination silently narrows rather than erroring.
func (j *Job) ConfigureRecording(cfg RecordingConfig) {
	j.recordFrameImages = cfg.RecordFrameImages
	j.recordGraphVersions = cfg.RecordGraphVersions
	j.renderLastGraph = cfg.RenderLastGraph
	j.renderGraphVersions = cfg.RenderGraphVersions && j.recordGraphVersions
	j.renderAnimatedGraph = cfg.RenderAnimatedGraph && j.renderGraphVersions
}
