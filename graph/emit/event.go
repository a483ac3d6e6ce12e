package emit

// Event represents an observability event emitted during job execution:
// graph mutation, node completion, or a recorder failure.
type Event struct {
	// JobID identifies the job that emitted this event.
	JobID string

	// Pass is the outer fixed-point loop pass number (1-indexed). Zero for
	// events emitted before the first pass, such as the graph_changed
	// notification at Execute entry.
	Pass int

	// NodeID is the decimal int32 id of the node that emitted this event.
	// Empty for job-level or graph-level events.
	NodeID string

	// Msg names the event: "graph_changed", "node_executed", "recorder_error",
	// "renderer_error".
	Msg string

	// Meta carries event-specific data. Common keys: "duration_ticks",
	// "graph_version", "placeholder_id", "error".
	Meta map[string]interface{}
}
