package emit

// NullEmitter discards every event. It is the job package's zero-value
// default so a Job never requires an observability backend to run.
type NullEmitter struct{}

// NewNullEmitter returns an Emitter that does nothing.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards event.
func (n *NullEmitter) Emit(event Event) {}
