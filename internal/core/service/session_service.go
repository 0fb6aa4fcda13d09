package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
	"github.com/ballotbox/voting-api/internal/pkg/metrics"
)

const defaultSessionTTL = 24 * time.Hour

// SessionService issues opaque session tokens backed by a SessionStore.
type SessionService struct {
	store   ports.SessionStore
	users   ports.UserRepository
	logger  zerolog.Logger
	ttl     time.Duration
	sliding bool
	now     func() time.Time
}

func NewSessionService(store ports.SessionStore, users ports.UserRepository, ttl time.Duration, sliding bool, logger zerolog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		store:   store,
		users:   users,
		logger:  logger,
		ttl:     ttl,
		sliding: sliding,
		now:     time.Now,
	}
}

// Start issues a new session for user.
func (s *SessionService) Start(ctx context.Context, user *domain.User) (*domain.Session, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("start session: missing user")
	}
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        id,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	metrics.SessionsStartedTotal.Inc()
	s.logger.Debug().Str("user_id", user.ID).Msg("session started")
	return sess, nil
}

// Validate returns the user behind token. Unknown, expired or orphaned
// sessions fail with domain.ErrUnauthenticated.
func (s *SessionService) Validate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	sess, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if sess.Expired(now) {
		s.discard(ctx, token)
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.discard(ctx, token)
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}

	if s.sliding {
		if err := s.store.Touch(ctx, token, now.Add(s.ttl)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to extend session")
		}
	}
	return user, nil
}

// CurrentUser is Validate for optional authentication: an anonymous caller
// yields (nil, nil).
func (s *SessionService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.Validate(ctx, token)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return nil, nil
	}
	return user, err
}

// End removes the session. Ending an unknown session is not an error.
func (s *SessionService) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (s *SessionService) discard(ctx context.Context, token string) {
	if err := s.store.Delete(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remove stale session")
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
