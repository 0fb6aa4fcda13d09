package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

func newTestSessionService(sliding bool) (*SessionService, *stubSessionStore, *stubUserRepo) {
	store := newStubSessionStore()
	users := newStubUserRepo()
	return NewSessionService(store, users, time.Hour, sliding, discardLogger), store, users
}

func TestSessionService_StartAndValidate(t *testing.T) {
	svc, store, users := newTestSessionService(false)
	user := users.seed(&domain.User{Email: "a@example.com", Name: "A"})

	sess, err := svc.Start(context.Background(), user)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(sess.ID) < 40 {
		t.Errorf("session id looks too short: %q", sess.ID)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != time.Hour {
		t.Errorf("expected 1h lifetime, got %v", got)
	}
	if _, ok := store.byID[sess.ID]; !ok {
		t.Fatal("session was not stored")
	}

	resolved, err := svc.Validate(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("validated user %q, want %q", resolved.ID, user.ID)
	}
	if store.touched != 0 {
		t.Errorf("non-sliding sessions must not be touched, got %d", store.touched)
	}
}

func TestSessionService_DistinctTokens(t *testing.T) {
	svc, _, users := newTestSessionService(false)
	user := users.seed(&domain.User{Email: "a@example.com"})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sess, err := svc.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if seen[sess.ID] {
			t.Fatalf("duplicate session id %q", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestSessionService_Validate_Unknown(t *testing.T) {
	svc, _, _ := newTestSessionService(false)

	for _, token := range []string{"", "nope"} {
		if _, err := svc.Validate(context.Background(), token); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("token %q: expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestSessionService_Validate_Expired(t *testing.T) {
	svc, store, users := newTestSessionService(false)
	user := users.seed(&domain.User{Email: "a@example.com"})

	sess, _ := svc.Start(context.Background(), user)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := svc.Validate(context.Background(), sess.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, ok := store.byID[sess.ID]; ok {
		t.Error("expired session should be removed")
	}
}

func TestSessionService_Validate_DeletedUser(t *testing.T) {
	svc, store, users := newTestSessionService(false)
	user := users.seed(&domain.User{Email: "a@example.com"})

	sess, _ := svc.Start(context.Background(), user)
	_ = users.Delete(context.Background(), user.ID)

	if _, err := svc.Validate(context.Background(), sess.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, ok := store.byID[sess.ID]; ok {
		t.Error("orphaned session should be removed")
	}
}

func TestSessionService_Validate_Sliding(t *testing.T) {
	svc, store, users := newTestSessionService(true)
	user := users.seed(&domain.User{Email: "a@example.com"})

	sess, _ := svc.Start(context.Background(), user)
	later := time.Now().Add(30 * time.Minute)
	svc.now = func() time.Time { return later }

	if _, err := svc.Validate(context.Background(), sess.ID); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if store.touched != 1 {
		t.Fatalf("expected one touch, got %d", store.touched)
	}
	if got := store.byID[sess.ID].ExpiresAt; !got.After(sess.ExpiresAt) {
		t.Errorf("expiry not extended: %v <= %v", got, sess.ExpiresAt)
	}
}

func TestSessionService_CurrentUser_Anonymous(t *testing.T) {
	svc, _, users := newTestSessionService(false)

	user, err := svc.CurrentUser(context.Background(), "")
	if err != nil || user != nil {
		t.Fatalf("anonymous: expected (nil, nil), got (%v, %v)", user, err)
	}

	seeded := users.seed(&domain.User{Email: "a@example.com"})
	sess, _ := svc.Start(context.Background(), seeded)
	user, err = svc.CurrentUser(context.Background(), sess.ID)
	if err != nil || user == nil || user.ID != seeded.ID {
		t.Fatalf("expected current user %q, got (%v, %v)", seeded.ID, user, err)
	}
}

func TestSessionService_End(t *testing.T) {
	svc, _, users := newTestSessionService(false)
	user := users.seed(&domain.User{Email: "a@example.com"})
	sess, _ := svc.Start(context.Background(), user)

	if err := svc.End(context.Background(), sess.ID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, err := svc.Validate(context.Background(), sess.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("ended session still valid: %v", err)
	}
	// Ending twice is fine.
	if err := svc.End(context.Background(), sess.ID); err != nil {
		t.Errorf("second end failed: %v", err)
	}
}
