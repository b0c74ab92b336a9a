package pipeline

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// Notifier is told about every answered question. Refusals are never reported.
type Notifier interface {
	Notify(ctx context.Context, ev models.AnswerEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev models.AnswerEvent) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev models.AnswerEvent) error {
	return f(ctx, ev)
}

// LogNotifier logs each answer at info level.
func LogNotifier(logger *zap.Logger) Notifier {
	return NotifierFunc(func(_ context.Context, ev models.AnswerEvent) error {
		logger.Info("answered",
			zap.String("id", ev.ID),
			zap.String("question", ev.Question),
			zap.String("answer", ev.Answer),
			zap.Float64("top_score", ev.TopScore),
			zap.Int("contexts", ev.Contexts),
			zap.Duration("duration", ev.Duration),
		)
		return nil
	})
}
