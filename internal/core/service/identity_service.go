package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
	"github.com/ballotbox/voting-api/internal/pkg/metrics"
)

const defaultDisplayName = "User"

// IdentityService maps local credentials and external provider profiles to
// a single user record, merging by email.
type IdentityService struct {
	users  ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewIdentityService(users ports.UserRepository, logger zerolog.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger, now: time.Now}
}

// Resolve dispatches on the assertion type.
func (s *IdentityService) Resolve(ctx context.Context, a domain.Assertion) (*domain.User, error) {
	switch a := a.(type) {
	case domain.LocalSignup:
		return s.Signup(ctx, a)
	case domain.LocalLogin:
		return s.Login(ctx, a)
	case domain.ExternalIdentity:
		return s.ResolveExternal(ctx, a)
	default:
		return nil, fmt.Errorf("resolve: unsupported assertion %T", a)
	}
}

// Signup creates a password account. The email must not be registered yet.
func (s *IdentityService) Signup(ctx context.Context, in domain.LocalSignup) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.record("signup", string(domain.CodeConflict))
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.record("signup", string(domain.CodeConflict))
			return nil, err
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("local account created")
	s.record("signup", "created")
	return user, nil
}

// Login verifies a password. OAuth-only accounts fail with a message that
// points the user at their provider.
func (s *IdentityService) Login(ctx context.Context, in domain.LocalLogin) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record("login", string(domain.CodeInvalidCredentials))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.HasPassword() {
		s.record("login", string(domain.CodeInvalidCredentials))
		return nil, domain.ErrOAuthOnlyAccount
	}
	if !checkPassword(user.PasswordHash, in.Password) {
		s.record("login", string(domain.CodeInvalidCredentials))
		return nil, domain.ErrInvalidCredentials
	}

	s.record("login", "resolved")
	return user, nil
}

// ResolveExternal reconciles a provider profile: match on the provider id,
// then on email (linking the provider id), else create a new account.
// At most one write happens per call.
func (s *IdentityService) ResolveExternal(ctx context.Context, id domain.ExternalIdentity) (*domain.User, error) {
	kind := string(id.Provider)
	if !id.Provider.Valid() || id.ProviderID == "" {
		return nil, fmt.Errorf("resolve external: invalid identity for provider %q", id.Provider)
	}
	email := domain.NormalizeEmail(id.Email)
	if email == "" {
		s.record(kind, string(domain.CodeMissingEmail))
		return nil, domain.ErrMissingEmail
	}

	user, err := s.users.FindByProviderID(ctx, id.Provider, id.ProviderID)
	if err == nil {
		s.record(kind, "resolved")
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("resolve external: %w", err)
	}

	user, err = s.linkByEmail(ctx, id, email)
	if err == nil || !errors.Is(err, domain.ErrUserNotFound) {
		return user, err
	}

	name := strings.TrimSpace(id.DisplayName)
	if name == "" {
		name = defaultDisplayName
	}
	created := &domain.User{
		Email:     email,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	created.SetProviderID(id.Provider, id.ProviderID)

	user, err = s.users.Create(ctx, created)
	if errors.Is(err, domain.ErrEmailTaken) {
		// Lost a race with a concurrent registration of the same email.
		return s.linkByEmail(ctx, id, email)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve external: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("provider", kind).Msg("account created from provider")
	s.record(kind, "created")
	return user, nil
}

func (s *IdentityService) linkByEmail(ctx context.Context, id domain.ExternalIdentity, email string) (*domain.User, error) {
	kind := string(id.Provider)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve external: %w", err)
	}

	current := user.ProviderID(id.Provider)
	if current == id.ProviderID {
		s.record(kind, "resolved")
		return user, nil
	}
	if current != "" {
		// Only an empty provider id is backfilled.
		s.logger.Warn().Str("user_id", user.ID).Str("provider", kind).Msg("email already linked to another provider identity")
		s.record(kind, string(domain.CodeConflict))
		return nil, domain.ErrProviderInUse
	}

	linked, err := s.users.LinkProvider(ctx, user.ID, id.Provider, id.ProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrProviderLinked) || errors.Is(err, domain.ErrProviderInUse) {
			s.record(kind, string(domain.CodeConflict))
			return nil, err
		}
		return nil, fmt.Errorf("resolve external: link: %w", err)
	}

	s.logger.Info().Str("user_id", linked.ID).Str("provider", kind).Msg("provider linked to existing account")
	s.record(kind, "linked")
	return linked, nil
}

func (s *IdentityService) record(kind, outcome string) {
	metrics.AuthResolutionsTotal.WithLabelValues(kind, outcome).Inc()
}
