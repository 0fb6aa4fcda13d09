package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

// SessionStore keeps sessions in Redis hashes that expire with the session.
// Key format: session:<id>
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) ports.SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	key := sessionKey(sess.ID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, encodeSession(sess))
		p.ExpireAt(ctx, key, sess.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns domain.ErrUnauthenticated once Redis has evicted the key.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrUnauthenticated
	}
	return decodeSession(id, fields)
}

func (s *SessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	key := sessionKey(id)
	cmds, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Exists(ctx, key)
		p.ExpireAt(ctx, key, expiresAt)
		p.HSet(ctx, key, "expires_at", expiresAt.Unix())
		return nil
	})
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	// HSet on a missing key would resurrect it without a user.
	if n, _ := cmds[0].(*redis.IntCmd).Result(); n == 0 {
		_ = s.client.Del(ctx, key).Err()
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}

func encodeSession(sess *domain.Session) map[string]any {
	return map[string]any{
		"user_id":    sess.UserID,
		"created_at": sess.CreatedAt.Unix(),
		"expires_at": sess.ExpiresAt.Unix(),
	}
}

func decodeSession(id string, fields map[string]string) (*domain.Session, error) {
	userID := fields["user_id"]
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode session created_at: %w", err)
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode session expires_at: %w", err)
	}
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Unix(created, 0).UTC(),
		ExpiresAt: time.Unix(expires, 0).UTC(),
	}, nil
}
