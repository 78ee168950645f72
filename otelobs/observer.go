// Package otelobs bridges engine observer callbacks to OpenTelemetry
// traces. Each dispatched event becomes a span; nested dispatches (launch
// events, deferral replays triggered mid-entry) become child spans because
// the engine settles inner dispatches before outer ones.
package otelobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ykoski/hfsm/pkg/api"
)

const tracerName = "github.com/ykoski/hfsm/otelobs"

// Observer emits one span per event dispatch plus span events for state
// lifecycle changes. It shares the engine's single-owner contract and must
// not be shared across engines.
type Observer struct {
	api.NoopObserver

	tracer trace.Tracer

	// Dispatches nest strictly (an inner dispatch settles before its
	// outer one returns), so a stack of open spans mirrors the engine's
	// call stack exactly.
	stack []spanFrame
}

type spanFrame struct {
	ctx  context.Context
	span trace.Span
}

var _ api.Observer = (*Observer)(nil)

// New creates an Observer using tp, or the global tracer provider when tp
// is nil.
func New(tp trace.TracerProvider) *Observer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Observer{tracer: tp.Tracer(tracerName)}
}

// current returns the context of the innermost open dispatch span, so
// lifecycle events attach to the dispatch that caused them.
func (o *Observer) current() context.Context {
	if len(o.stack) == 0 {
		return context.Background()
	}
	return o.stack[len(o.stack)-1].ctx
}

// addEvent records a point-in-time event on the innermost open span, if any.
func (o *Observer) addEvent(name string, attrs ...attribute.KeyValue) {
	if len(o.stack) == 0 {
		return
	}
	o.stack[len(o.stack)-1].span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (o *Observer) OnEventDispatched(state, event string) {
	ctx, span := o.tracer.Start(o.current(), "hfsm.dispatch",
		trace.WithAttributes(
			attribute.String("hfsm.state", state),
			attribute.String("hfsm.event", event),
		),
	)
	o.stack = append(o.stack, spanFrame{ctx: ctx, span: span})
}

func (o *Observer) OnEventSettled(state, event string, err error, d time.Duration) {
	if len(o.stack) == 0 {
		return
	}
	frame := o.stack[len(o.stack)-1]
	o.stack = o.stack[:len(o.stack)-1]

	if err != nil {
		frame.span.RecordError(err)
		frame.span.SetStatus(codes.Error, err.Error())
	} else {
		frame.span.SetStatus(codes.Ok, "")
	}
	frame.span.End()
}

func (o *Observer) OnStateEntered(state string) {
	o.addEvent("state entered", attribute.String("hfsm.state", state))
}

func (o *Observer) OnStateExited(state string) {
	o.addEvent("state exited", attribute.String("hfsm.state", state))
}

func (o *Observer) OnStatePreempted(parent, substate string) {
	o.addEvent("state preempted",
		attribute.String("hfsm.state", parent),
		attribute.String("hfsm.substate", substate),
	)
}

func (o *Observer) OnStateResumed(parent string) {
	o.addEvent("state resumed", attribute.String("hfsm.state", parent))
}

func (o *Observer) OnEventDeferred(state, event string) {
	o.addEvent("event deferred",
		attribute.String("hfsm.state", state),
		attribute.String("hfsm.event", event),
	)
}

func (o *Observer) OnReplayFailure(event string, err error) {
	o.addEvent("replay failed",
		attribute.String("hfsm.event", event),
		attribute.String("hfsm.error", err.Error()),
	)
}
