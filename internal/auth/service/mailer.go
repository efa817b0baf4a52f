package service

import (
	"context"
	"log/slog"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// LogMailer writes reset links to the log instead of sending email. It is
// the only delivery mechanism shipped; operators copy the link from the logs.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "password reset requested",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("reset_link", link),
	)
	return nil
}
