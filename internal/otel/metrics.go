package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	AttrRoute     = attribute.Key("tasklist.route")
	AttrStatus    = attribute.Key("tasklist.status")
	AttrOperation = attribute.Key("tasklist.task.operation")
)

// Metrics holds the instruments recorded by the HTTP layers.
type Metrics struct {
	RequestDuration metric.Float64Histogram
	TaskMutations   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RequestDuration, err = meter.Float64Histogram("tasklist.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.TaskMutations, err = meter.Int64Counter("tasklist.task.mutations",
		metric.WithDescription("Successful task mutations by operation"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequest is nil-safe so handlers can skip metrics entirely.
func (m *Metrics) RecordRequest(ctx context.Context, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.Record(ctx, seconds, metric.WithAttributes(AttrRoute.String(route), AttrStatus.Int(status)))
}

func (m *Metrics) RecordMutation(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.TaskMutations.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
}
