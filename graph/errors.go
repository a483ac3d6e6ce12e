// Package graph provides the core job execution engine: a DAG of image
// operation nodes driven to completion through a fixed-point sequence of
// graph rewrites interleaved with partial execution.
package graph

import (
	"errors"
	"fmt"
)

// Kind identifies the class of error a Job operation can fail with.
//
// Kind mirrors the engine's error taxonomy: every failure surfaced by the
// core belongs to exactly one of these buckets, regardless of which node,
// codec, or phase produced it.
type Kind int

const (
	// KindOutOfMemory indicates an allocation failure.
	KindOutOfMemory Kind = iota
	// KindNullArgument indicates a required argument was nil or zero-valued
	// where the contract requires a live value.
	KindNullArgument
	// KindIOError indicates a read/seek/write/tell call on an I/O endpoint
	// failed.
	KindIOError
	// KindNotImplemented indicates an unrecognized codec signature.
	KindNotImplemented
	// KindGraphInvalid indicates a structural problem with the graph, such
	// as a dangling placeholder id discovered during codec linking.
	KindGraphInvalid
	// KindMaxPassesExceeded indicates the fixed-point pass loop ran
	// max_passes iterations without reaching a fully executed graph.
	KindMaxPassesExceeded
	// KindNode wraps an error returned by a node operation (populate
	// dimensions, flatten, or execute).
	KindNode
	// KindCodec wraps an error returned by a codec operation (select or
	// initialize).
	KindCodec
)

func (k Kind) String() string {
	switch k {
	case KindOutOfMemory:
		return "out_of_memory"
	case KindNullArgument:
		return "null_argument"
	case KindIOError:
		return "io_error"
	case KindNotImplemented:
		return "not_implemented"
	case KindGraphInvalid:
		return "graph_invalid"
	case KindMaxPassesExceeded:
		return "maximum_graph_passes_exceeded"
	case KindNode:
		return "node_error"
	case KindCodec:
		return "codec_error"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every engine operation that can fail.
//
// Errors accumulate a callstack of annotated frames as they unwind: each
// layer of the engine that observes a failure appends its own frame via
// Wrap rather than discarding the original cause. There is no local
// recovery inside the engine — any failure aborts the current Execute call.
type Error struct {
	Kind    Kind
	Message string
	Frames  []string
	Cause   error
}

// NewError constructs a new engine Error of the given kind.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	for _, f := range e.Frames {
		msg += "\n\tat " + f
	}
	if e.Cause != nil {
		msg += "\ncaused by: " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any, for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap annotates err with a new callstack frame and returns an *Error. If
// err is already an *Error, a copy of it is returned with the frame
// appended (err itself is left unchanged); otherwise a new KindNode error
// is created wrapping err.
func Wrap(err error, frame string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		wrapped := *e
		wrapped.Frames = append(append([]string{}, e.Frames...), frame)
		return &wrapped
	}
	return &Error{Kind: KindNode, Message: err.Error(), Frames: []string{frame}, Cause: err}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
