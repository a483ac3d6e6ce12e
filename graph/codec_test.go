package graph

import (
	"context"
	"strings"
	"testing"
)

func TestAddIOSniffsAndRewindsInput(t *testing.T) {
	j := NewJob(WithCodecSelector(&fakeSelector{}))
	payload := append(append([]byte{}, fakeMagic[:]...), []byte("rest-of-file")...)
	io := newFakeInput(payload)

	if err := j.AddIO(context.Background(), io, 1, DirectionInput); err != nil {
		t.Fatalf("AddIO: %v", err)
	}

	pos, err := io.Tell(context.Background())
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if pos != 0 {
		t.Errorf("cursor position after AddIO = %d, want 0 (must rewind after sniffing)", pos)
	}

	binding := j.getCodecInstance(1)
	if binding == nil {
		t.Fatal("expected a registered binding for placeholder 1")
	}
	if binding.CodecID != 1 {
		t.Errorf("CodecID = %d, want 1", binding.CodecID)
	}
}

func TestAddIORejectsUnrecognizedSignature(t *testing.T) {
	j := NewJob(WithCodecSelector(&fakeSelector{}))
	io := newFakeInput([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01, 0x02, 0x03, 0xFF})

	err := j.AddIO(context.Background(), io, 1, DirectionInput)
	if err == nil {
		t.Fatal("expected an error for an unrecognized signature, got nil")
	}
	if !Is(err, KindNotImplemented) {
		t.Errorf("error kind = %v, want KindNotImplemented", err)
	}
	want := "Unrecognized leading byte sequence deadbeef00010203"
	if got := err.Error(); !strings.Contains(got, want) {
		t.Errorf("error message = %q, want it to contain %q", got, want)
	}
}

func TestAddIOOutputSkipsSniffing(t *testing.T) {
	j := NewJob(WithCodecSelector(&fakeSelector{}))
	sink := newFakeOutputSink()

	if err := j.AddIO(context.Background(), sink, 99, DirectionOutput); err != nil {
		t.Fatalf("AddIO: %v", err)
	}

	binding := j.getCodecInstance(99)
	if binding == nil {
		t.Fatal("expected a registered binding for placeholder 99")
	}
	if binding.CodecID != 0 {
		t.Errorf("CodecID = %d, want 0 (output bindings resolve during execute)", binding.CodecID)
	}
}

func TestAddIORejectsNilIO(t *testing.T) {
	j := NewJob()
	err := j.AddIO(context.Background(), nil, 1, DirectionInput)
	if !Is(err, KindNullArgument) {
		t.Errorf("error kind = %v, want KindNullArgument", err)
	}
}

func TestLinkCodecsIsIdempotent(t *testing.T) {
	j := NewJob(WithCodecSelector(&fakeSelector{}))
	io := newFakeInput(append(append([]byte{}, fakeMagic[:]...), []byte("rest")...))
	if err := j.AddIO(context.Background(), io, 5, DirectionInput); err != nil {
		t.Fatalf("AddIO: %v", err)
	}

	g := NewGraph()
	decoder := g.AddNode(NodeDecoder)
	nr, _ := g.nodeRef(decoder)
	nr.PlaceholderID = 5
	nr.OpName = "decode"

	if err := j.linkCodecs(g); err != nil {
		t.Fatalf("first linkCodecs: %v", err)
	}
	firstBinding := nr.Codec
	if firstBinding == nil {
		t.Fatal("expected Codec to be set after linkCodecs")
	}

	if err := j.linkCodecs(g); err != nil {
		t.Fatalf("second linkCodecs: %v", err)
	}
	if nr.Codec != firstBinding {
		t.Error("linkCodecs must leave an already-linked node's Codec untouched")
	}
}

func TestLinkCodecsReportsDanglingPlaceholder(t *testing.T) {
	j := NewJob(WithCodecSelector(&fakeSelector{}))
	g := NewGraph()
	decoder := g.AddNode(NodeDecoder)
	nr, _ := g.nodeRef(decoder)
	nr.PlaceholderID = 42
	nr.OpName = "decode"

	err := j.linkCodecs(g)
	if err == nil {
		t.Fatal("expected an error for a dangling placeholder")
	}
	if !Is(err, KindGraphInvalid) {
		t.Errorf("error kind = %v, want KindGraphInvalid", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "42") || !strings.Contains(msg, nodeIDString(decoder)) {
		t.Errorf("error message = %q, want it to name both placeholder id 42 and node %s", msg, nodeIDString(decoder))
	}
}

func TestGetOutputBufferReturnsSinkContents(t *testing.T) {
	j := NewJob(WithCodecSelector(&fakeSelector{}))
	sink := newFakeOutputSink()
	if err := j.AddIO(context.Background(), sink, 7, DirectionOutput); err != nil {
		t.Fatalf("AddIO: %v", err)
	}

	io := j.GetIO(7)
	if _, err := io.Write(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf, err := j.GetOutputBuffer(7)
	if err != nil {
		t.Fatalf("GetOutputBuffer: %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("GetOutputBuffer = %q, want %q", buf, "hello")
	}
}
