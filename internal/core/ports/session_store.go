package ports

import (
	"context"
	"time"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// SessionStore keeps server-side sessions. Entries may be evicted once
// expired; Get then returns domain.ErrUnauthenticated.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Touch pushes the expiry of an existing session to expiresAt.
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// ResetNotification is what the reset mail needs: the recipient and the link.
type ResetNotification struct {
	Email     string
	ResetURL  string
	ExpiresAt time.Time
}

// ResetNotifier delivers password reset links.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, n ResetNotification) error
}
