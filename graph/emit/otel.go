package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into an immediately-ended OpenTelemetry
// span, suitable for feeding a batch span processor configured by the
// caller's own TracerProvider setup.
//
// Span name is event.Msg. Standard attributes are imageflow.job_id,
// imageflow.pass, imageflow.node_id, plus imageflow.graph_version and
// imageflow.codec.placeholder_id when present in event.Meta. A
// "error" meta entry marks the span as errored.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an Emitter that records spans on tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit starts and immediately ends a span named event.Msg, carrying
// event's fields and metadata as attributes.
func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	o.addStandardAttributes(span, event)
	o.addMetadataAttributes(span, event.Meta)
	o.addGraphVersionAttributes(span, event.Meta)

	if err, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, err)
		span.RecordError(fmt.Errorf("%s", err))
	}
}

func (o *OTelEmitter) addStandardAttributes(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("imageflow.job_id", event.JobID),
		attribute.Int("imageflow.pass", event.Pass),
		attribute.String("imageflow.node_id", event.NodeID),
	)
}

// addMetadataAttributes maps event.Meta onto span attributes, translating
// the domain-specific keys notifyNodeComplete/notifyGraphChanged populate
// into the "imageflow" namespace.
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	for key, value := range meta {
		if key == "pass" || key == "graph_version" {
			continue // graph_version: addGraphVersionAttributes; pass: event.Pass
		}

		attrKey := key
		switch key {
		case "duration_ticks":
			attrKey = "imageflow.node.duration_ticks"
		case "placeholder_id":
			attrKey = "imageflow.codec.placeholder_id"
		case "node_id":
			attrKey = "imageflow.node.id"
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}

func (o *OTelEmitter) addGraphVersionAttributes(span trace.Span, meta map[string]interface{}) {
	switch version := meta["graph_version"].(type) {
	case int:
		span.SetAttributes(attribute.Int("imageflow.graph_version", version))
	case int64:
		span.SetAttributes(attribute.Int64("imageflow.graph_version", version))
	}
}
