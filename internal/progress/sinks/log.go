package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is useful
// during development or audits where a durable store is unavailable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields. Lifecycle
// stages log at info; the per-act and per-page stream stays at debug to keep
// production logs readable.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.String("stage", string(evt.Stage)),
			zap.String("strategy", evt.Strategy),
			zap.String("query", evt.Query),
			zap.String("celex", evt.Celex),
			zap.Int("page", evt.Page),
			zap.Int("count", evt.Count),
			zap.String("error_kind", evt.ErrorKind),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		}
		switch evt.Stage {
		case progress.StageRunStart, progress.StageRunDone,
			progress.StageStrategyStart, progress.StageStrategyDone:
			s.logger.Info("progress event", fields...)
		default:
			s.logger.Debug("progress event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
