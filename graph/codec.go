package graph

import (
	"context"
	"errors"
	"fmt"
)

// Direction names which way pixels flow through a CodecBinding.
type Direction int

const (
	// DirectionInput binds an I/O endpoint a decoder node reads from.
	DirectionInput Direction = iota
	// DirectionOutput binds an I/O endpoint an encoder node writes to.
	DirectionOutput
)

// IO is the I/O transport collaborator: a finite, seekable byte source or
// sink. Every read/seek/write/tell call is synchronous; the engine never
// treats an I/O endpoint as a streaming, unbounded source. I/O endpoints
// are supplied by the caller and outlive the job — the job never closes
// one.
type IO interface {
	Read(ctx context.Context, buf []byte) (int, error)
	Seek(ctx context.Context, offset int64) error
	Tell(ctx context.Context) (int64, error)
	Write(ctx context.Context, buf []byte) (int, error)

	// OutputBuffer returns the accumulated bytes of an in-memory sink and
	// true, or (nil, false) for endpoints that are not in-memory sinks
	// (e.g. a file-backed IO).
	OutputBuffer() ([]byte, bool)
}

// CodecSelector is the external codec-module collaborator: it identifies a
// codec from a leading byte signature and performs any one-time setup a
// resolved binding needs. Format-specific decode/encode logic itself lives
// in the NodeOps registered for decoder/encoder node kinds, not here — this
// interface only covers the two operations the core must call directly
// during add_io.
type CodecSelector interface {
	// Select returns a non-zero codec id for a recognized signature, or 0
	// if the signature is not recognized by any registered codec.
	Select(signature []byte) int32

	// Initialize performs codec-specific setup for a newly resolved
	// binding (e.g. parsing a header), optionally populating
	// binding.CodecState.
	Initialize(ctx context.Context, job *Job, binding *CodecBinding) error
}

// CodecBinding links an I/O endpoint to a placeholder id referenced by
// encoder/decoder nodes in the graph.
type CodecBinding struct {
	PlaceholderID int32
	IO            IO
	Direction     Direction

	// CodecID is 0 until resolved. For Input bindings this happens during
	// AddIO (by sniffing); for Output bindings it remains 0 until an
	// encoder node sets it during execution.
	CodecID int32

	// CodecState is opaque, owned entirely by the codec implementation.
	CodecState interface{}
}

// AddIO registers io under placeholderID in the given direction.
//
// For Input bindings, the first 8 bytes are read and the cursor is
// rewound to 0 before codec_select is consulted; an unrecognized
// signature is a KindNotImplemented failure naming the literal 8 hex
// bytes. Output bindings are registered without sniffing — their codec is
// determined later, during execution, by the encoder node itself.
func (j *Job) AddIO(ctx context.Context, io IO, placeholderID int32, direction Direction) error {
	if io == nil {
		return NewError(KindNullArgument, "add_io: io must not be nil")
	}

	binding := &CodecBinding{PlaceholderID: placeholderID, IO: io, Direction: direction}

	if direction == DirectionOutput {
		j.codecs = append(j.codecs, binding)
		return nil
	}

	var sig [8]byte
	n, err := io.Read(ctx, sig[:])
	if err != nil || n != 8 {
		return NewError(KindIOError, "failed to read first 8 bytes of input (placeholder %d)", placeholderID)
	}
	if err := io.Seek(ctx, 0); err != nil {
		return Wrap(NewError(KindIOError, "failed to seek to byte 0 of input (placeholder %d): %v", placeholderID, err), "add_io")
	}

	if j.codecSelector == nil {
		return NewError(KindGraphInvalid, "add_io: no codec selector configured")
	}
	codecID := j.codecSelector.Select(sig[:])
	if codecID == 0 {
		return NewError(KindNotImplemented,
			"Unrecognized leading byte sequence %02x%02x%02x%02x%02x%02x%02x%02x",
			sig[0], sig[1], sig[2], sig[3], sig[4], sig[5], sig[6], sig[7])
	}
	binding.CodecID = codecID

	if err := j.codecSelector.Initialize(ctx, j, binding); err != nil {
		frame := fmt.Sprintf("initialize_codec placeholder %d", placeholderID)
		var engineErr *Error
		if !errors.As(err, &engineErr) {
			return &Error{Kind: KindCodec, Message: err.Error(), Frames: []string{frame}, Cause: err}
		}
		return Wrap(err, frame)
	}

	j.codecs = append(j.codecs, binding)
	return nil
}

// GetIO returns the I/O endpoint registered under placeholderID, or nil if
// none is registered.
func (j *Job) GetIO(placeholderID int32) IO {
	b := j.getCodecInstance(placeholderID)
	if b == nil {
		return nil
	}
	return b.IO
}

// GetOutputBuffer retrieves the accumulated buffer of an in-memory output
// sink bound to placeholderID. Callers typically invoke this after
// Execute succeeds.
func (j *Job) GetOutputBuffer(placeholderID int32) ([]byte, error) {
	io := j.GetIO(placeholderID)
	if io == nil {
		return nil, NewError(KindGraphInvalid, "no io registered for placeholder %d", placeholderID)
	}
	buf, ok := io.OutputBuffer()
	if !ok {
		return nil, NewError(KindGraphInvalid, "placeholder %d is not bound to an in-memory output sink", placeholderID)
	}
	return buf, nil
}

// getCodecInstance performs a linear scan of the registered bindings,
// first match wins. O(n) is acceptable: bindings are bounded to roughly
// ten per job.
func (j *Job) getCodecInstance(placeholderID int32) *CodecBinding {
	for _, b := range j.codecs {
		if b.PlaceholderID == placeholderID {
			return b
		}
	}
	return nil
}

// linkCodecs iterates every decoder/encoder node whose Codec field is
// still nil and resolves it via getCodecInstance(PlaceholderID). It is
// idempotent: a node with a Codec already set is left untouched, so
// running link_codecs twice yields the same bindings. A dangling
// placeholder (no matching binding) is a KindGraphInvalid failure naming
// both the placeholder id and the offending node.
func (j *Job) linkCodecs(g *Graph) error {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Type != NodeDecoder && n.Type != NodeEncoder {
			continue
		}
		if n.Codec != nil {
			continue
		}
		binding := j.getCodecInstance(n.PlaceholderID)
		if binding == nil {
			return NewError(KindGraphInvalid,
				"No matching codec or io found for placeholder id %d (node #%d).", n.PlaceholderID, i)
		}
		n.Codec = binding
	}
	return nil
}
