package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier is a NotificationService that logs instead of sending.
// Used for dry runs and local development.
type LogNotifier struct {
	logger *zap.Logger
}

// Compile-time interface check.
var _ NotificationService = (*LogNotifier)(nil)

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// SendPush logs the push notification.
func (n *LogNotifier) SendPush(_ context.Context, userID, title, body string) error {
	n.logger.Info("push notification",
		zap.String("op", "notify.LogNotifier.SendPush"),
		zap.String("user_id", userID),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}

// SendEmail logs the email notification.
func (n *LogNotifier) SendEmail(_ context.Context, address, subject, _ string) error {
	n.logger.Info("email notification",
		zap.String("op", "notify.LogNotifier.SendEmail"),
		zap.String("to", address),
		zap.String("subject", subject),
	)
	return nil
}
