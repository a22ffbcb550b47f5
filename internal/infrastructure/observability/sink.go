package observability

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// DegradationSink receives failures of best-effort dependencies that are
// never surfaced to the requester. Each report is written to the zerolog
// logger, counted in SideEffectFailures and emitted as an OpenTelemetry log
// record.
type DegradationSink struct {
	metrics *Metrics
	logger  otellog.Logger
}

// NewDegradationSink creates a sink bound to the global OTel logger provider
func NewDegradationSink(metrics *Metrics) *DegradationSink {
	return &DegradationSink{
		metrics: metrics,
		logger:  global.GetLoggerProvider().Logger(instrumentationName),
	}
}

// ReportDegraded records a swallowed failure of the given kind
func (s *DegradationSink) ReportDegraded(ctx context.Context, kind string, err error, fields map[string]string) {
	event := LoggerFromContext(ctx).Warn().
		Err(err).
		Str("side_effect", kind)
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg("best-effort dependency degraded")

	if s == nil {
		return
	}

	RecordSideEffectFailure(ctx, s.metrics, kind)

	if s.logger == nil {
		return
	}
	var record otellog.Record
	record.SetTimestamp(time.Now())
	record.SetSeverity(otellog.SeverityWarn)
	record.SetSeverityText("WARN")
	record.SetBody(otellog.StringValue("best-effort dependency degraded"))
	record.AddAttributes(
		otellog.String("side_effect", kind),
		otellog.String("error", errString(err)),
	)
	for k, v := range fields {
		record.AddAttributes(otellog.String(k, v))
	}
	s.logger.Emit(ctx, record)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
