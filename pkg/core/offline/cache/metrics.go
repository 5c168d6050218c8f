package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	readFresh = "fresh"
	readStale = "stale"
	readMiss  = "miss"
)

var (
	meter = otel.Meter("github.com/crowelm/crowelm/pkg/core/offline/cache")

	readCounter, _ = meter.Int64Counter("crowelm.cache.reads",
		metric.WithDescription("Cache reads by outcome."))
	fetchCounter, _ = meter.Int64Counter("crowelm.cache.fetches",
		metric.WithDescription("Upstream fetches by result."))
	fetchLatency, _ = meter.Float64Histogram("crowelm.cache.fetch.duration",
		metric.WithDescription("Upstream fetch latency."),
		metric.WithUnit("s"))
)

func recordRead(ctx context.Context, outcome string) {
	readCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func recordFetch(ctx context.Context, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	fetchCounter.Add(ctx, 1, attrs)
	fetchLatency.Record(ctx, seconds, attrs)
}
