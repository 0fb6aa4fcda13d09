package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/ports"
)

// LogSender writes reset links to the log instead of mailing them. It is
// used when no SMTP host is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendPasswordReset(_ context.Context, n ports.ResetNotification) error {
	s.log.Warn().
		Str("email", n.Email).
		Str("reset_url", n.ResetURL).
		Time("expires_at", n.ExpiresAt).
		Msg("smtp not configured, reset link logged")
	return nil
}
