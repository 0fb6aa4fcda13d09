package ports

import (
	"context"
	"time"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Email, google_id and linkedin_id are unique at the storage layer.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error)

	// Create inserts user and returns the stored record. A duplicate email
	// yields domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// LinkProvider sets the provider id on an existing user in a single write
	// and returns the updated record. A user already linked to a different id
	// for provider yields domain.ErrProviderInUse.
	LinkProvider(ctx context.Context, userID string, provider domain.Provider, providerID string) (*domain.User, error)

	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	// ConsumeResetToken atomically replaces the password hash and clears the
	// token, provided the token is still stored and unexpired at now.
	// It reports false when nothing matched.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (bool, error)

	SetPassword(ctx context.Context, userID, passwordHash string) error
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
	// Delete removes the user and any vote it cast.
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]domain.UserSummary, error)
	Count(ctx context.Context) (int64, error)
}
