package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/prasha-au/aichef/llm"
)

// InstrumentedCoordinator wraps Coordinator.Run with traces and metrics.
type InstrumentedCoordinator struct {
	inner  *Coordinator
	tracer trace.Tracer
	meter  metric.Meter
}

func NewInstrumentedCoordinator(inner *Coordinator, tracer trace.Tracer, meter metric.Meter) *InstrumentedCoordinator {
	return &InstrumentedCoordinator{
		inner:  inner,
		tracer: tracer,
		meter:  meter,
	}
}

func (c *InstrumentedCoordinator) Run(ctx context.Context, prompt llm.Prompt, tp ToolProvider) (string, error) {
	ctx, span := c.tracer.Start(ctx, "InstrumentedCoordinator.Run")
	defer span.End()

	runsCounter, _ := c.meter.Int64Counter("agent_runs_total",
		metric.WithDescription("Total number of chat turns started"))
	runsCompletedCounter, _ := c.meter.Int64Counter("agent_runs_completed_total",
		metric.WithDescription("Total number of chat turns completed successfully"))
	runsFailedCounter, _ := c.meter.Int64Counter("agent_runs_failed_total",
		metric.WithDescription("Total number of chat turns that failed"))
	toolsAvailableGauge, _ := c.meter.Int64Gauge("agent_tools_available_count",
		metric.WithDescription("Number of tools available to the agent"))
	turnDurationHist, _ := c.meter.Float64Histogram("agent_turn_duration_seconds",
		metric.WithDescription("Total duration of a chat turn in seconds"))

	runsCounter.Add(ctx, 1)
	toolsAvailableGauge.Record(ctx, int64(len(tp.GetTools())))

	start := time.Now()
	out, err := c.inner.Run(ctx, prompt, tp)
	turnDurationHist.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		runsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "chat turn failed")
		span.RecordError(err)
		return "", err
	}

	runsCompletedCounter.Add(ctx, 1)
	return out, nil
}
