package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitDisabledIsNoop(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false}, "backend")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if p.Tracer == nil || p.Meter == nil {
		t.Fatal("expected non-nil tracer and meter")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitWithDiscardExporter(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: true, Exporter: "none"}, "backend")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, span := p.Tracer.Start(context.Background(), "unit")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := Init(context.Background(), Config{Enabled: true, Exporter: "carrier-pigeon"}, ""); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest(context.Background(), "/read/allTasks", 200, 0.01)
	m.RecordMutation(context.Background(), "create")
}

func TestNewMetricsFromNoopMeter(t *testing.T) {
	m, err := NewMetrics(Noop().Meter)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordRequest(context.Background(), "/health", 200, 0.001)
	m.RecordMutation(context.Background(), "delete")
}

func TestHandlerAndTransportPassThrough(t *testing.T) {
	p := Noop()
	srv := httptest.NewServer(p.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}), "test"))
	defer srv.Close()

	client := &http.Client{Transport: p.Transport(nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
