package notify

import (
	"context"

	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

// LogSink writes events to the structured log. The fallback when no
// Redis is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs the event.
func (s *LogSink) Publish(ctx context.Context, ev types.Event) error {
	fields := []zap.Field{
		zap.String("kind", string(ev.Kind)),
		zap.Time("at", ev.At),
	}
	if ev.Opportunity != nil {
		fields = append(fields,
			zap.String("event", ev.Opportunity.Event),
			zap.String("outcome", ev.Opportunity.Outcome),
			zap.Float64("margin", ev.Opportunity.Margin))
	}
	if ev.Steam != nil {
		fields = append(fields,
			zap.String("event", ev.Steam.Event),
			zap.String("outcome", ev.Steam.Outcome),
			zap.String("direction", ev.Steam.Direction),
			zap.Float64("shift-pp", ev.Steam.ShiftPP))
	}

	s.logger.Info("signal-event", fields...)
	PublishesTotal.WithLabelValues(string(ev.Kind), "ok").Inc()
	return nil
}

// Close is a no-op for the log sink.
func (s *LogSink) Close() error {
	return nil
}
