package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
	"github.com/ballotbox/voting-api/internal/pkg/metrics"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

// PasswordResetService issues single-use reset tokens and consumes them.
type PasswordResetService struct {
	users       ports.UserRepository
	notifier    ports.ResetNotifier
	frontendURL string
	logger      zerolog.Logger
	now         func() time.Time
}

func NewPasswordResetService(users ports.UserRepository, notifier ports.ResetNotifier, frontendURL string, logger zerolog.Logger) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

// IssueResetToken stores a fresh token on the account behind email and hands
// the reset link to the notifier. Unknown emails succeed silently.
func (s *PasswordResetService) IssueResetToken(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.PasswordResetsTotal.WithLabelValues("unknown_email").Inc()
			return nil
		}
		return fmt.Errorf("issue reset token: %w", err)
	}

	token, err := randomHex(resetTokenBytes)
	if err != nil {
		return err
	}
	expiry := s.now().UTC().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	metrics.PasswordResetsTotal.WithLabelValues("issued").Inc()

	n := ports.ResetNotification{
		Email:     user.Email,
		ResetURL:  s.frontendURL + "/reset-password?token=" + url.QueryEscape(token),
		ExpiresAt: expiry,
	}
	if err := s.notifier.NotifyPasswordReset(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to queue reset notification")
	}
	return nil
}

// ConsumeResetToken sets a new password if token is valid. The token is
// cleared in the same write, so it cannot be used twice.
func (s *PasswordResetService) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrResetTokenInvalid
	}

	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
			return domain.ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	now := s.now().UTC()
	if user.ResetTokenExpiry == nil || !user.ResetTokenExpiry.After(now) {
		metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrResetTokenExpired
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.users.ConsumeResetToken(ctx, token, hash, now)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		// Used or expired between the lookup and the write.
		metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrResetTokenInvalid
	}

	metrics.PasswordResetsTotal.WithLabelValues("consumed").Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}
