package notify

import (
	"context"

	"go.uber.org/zap"
)

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier that writes events to the structured
// log. Used in development and as the fallback backend.
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Publish(_ context.Context, event Event) {
	n.logger.Info("notification",
		zap.String("kind", string(event.Kind)),
		zap.String("round_id", event.RoundID.String()),
		zap.String("actor_id", event.ActorID.String()),
		zap.String("subject_id", event.SubjectID.String()),
		zap.Int("recipients", len(event.Recipients)),
	)
}
