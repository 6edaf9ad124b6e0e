package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records events in the application log. It is always on, so
// notifications are visible even without a broker.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.String("student", e.StudentID),
		zap.String("lesson", e.LessonID),
		zap.Int("attempt", e.Attempt),
		zap.Bool("review", e.Review),
	}
	if e.Type == LessonCompleted {
		fields = append(fields, zap.Int("percentage", e.Percentage), zap.Bool("passed", e.Passed))
	}
	n.log.Info(string(e.Type), fields...)
	return nil
}
