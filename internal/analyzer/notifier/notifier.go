package notifier

import (
	"context"

	"forex-sentiment-analyzer/pkg/logger"
)

// Notifier delivers operator-facing messages: weekly verdict digests and
// health alerts.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Multi fans one message out to every configured channel. Delivery failures
// are logged per channel and do not stop the others.
type Multi struct {
	channels []Notifier
	logger   *logger.Logger
}

func NewMulti(log *logger.Logger, channels ...Notifier) *Multi {
	return &Multi{channels: channels, logger: log}
}

func (m *Multi) Send(ctx context.Context, message string) error {
	for _, ch := range m.channels {
		if err := ch.Send(ctx, message); err != nil {
			m.logger.Error("Notification delivery failed", logger.ErrorField(err))
		}
	}
	return nil
}
