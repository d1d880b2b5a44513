package testutil

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var _ trace.SpanExporter = &Collector{}

// Collector is a span exporter that keeps exported spans in memory for
// assertions. Safe for use with a synchronous processor while spans are
// still being produced.
type Collector struct {
	lk    sync.Mutex
	spans tracetest.SpanStubs
}

func (c *Collector) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	c.lk.Lock()
	defer c.lk.Unlock()
	c.spans = append(c.spans, tracetest.SpanStubsFromReadOnlySpans(spans)...)
	return nil
}

func (c *Collector) Shutdown(ctx context.Context) error {
	return nil
}

// FindSpans returns every collected span with the given name
func (c *Collector) FindSpans(name string) tracetest.SpanStubs {
	c.lk.Lock()
	defer c.lk.Unlock()
	var found = tracetest.SpanStubs{}
	for _, s := range c.spans {
		if s.Name == name {
			found = append(found, s)
		}
	}
	return found
}

// FindSpansWithParent returns every collected span parented to stub
func (c *Collector) FindSpansWithParent(stub tracetest.SpanStub) tracetest.SpanStubs {
	c.lk.Lock()
	defer c.lk.Unlock()
	var found = tracetest.SpanStubs{}
	for _, s := range c.spans {
		if s.Parent.SpanID() == stub.SpanContext.SpanID() {
			found = append(found, s)
		}
	}
	return found
}
