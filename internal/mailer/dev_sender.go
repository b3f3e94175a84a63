package mailer

import (
	"context"

	"go.uber.org/zap"
)

// DevSender logs emails instead of delivering them. Used in development and
// in deployments where outbound email is disabled.
type DevSender struct {
	logger *zap.Logger
}

func NewDevSender(logger *zap.Logger) *DevSender {
	return &DevSender{logger: logger}
}

func (s *DevSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (dev sender, not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("tag", msg.Tag),
	)
	return nil
}

var _ Sender = (*DevSender)(nil)
