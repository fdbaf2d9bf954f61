package event

import (
	"go.uber.org/zap"
)

// LogObserver writes every event to a zap logger. Failures log at warn
// level, migration gaps at info, successes at debug.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver returns an observer writing to logger
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Publish logs e
func (o *LogObserver) Publish(e Event) {
	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("kind", string(e.Kind)),
		zap.String("key", e.Key),
	}
	if e.TypeName != "" {
		fields = append(fields, zap.String("type", e.TypeName))
	}

	switch {
	case e.Kind == MigrationGap:
		fields = append(fields, zap.Int("from_version", e.FromVersion), zap.Int("to_version", e.ToVersion))
		o.logger.Info("No migrator registered, payload passed through", fields...)
	case e.Kind.Failed():
		fields = append(fields, zap.String("error", e.Error))
		o.logger.Warn("Save data operation failed", fields...)
	default:
		o.logger.Debug("Save data operation succeeded", fields...)
	}
}
