package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

func TestIdentityService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)

	user, err := svc.Resolve(context.Background(), domain.LocalSignup{Email: " Alice@Example.com ", Password: "pass123", Name: "Alice"})
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "pass123" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.IsAdmin {
		t.Error("new accounts must not be admins")
	}
}

func TestIdentityService_Signup_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)

	if _, err := svc.Resolve(context.Background(), domain.LocalSignup{Email: "bob@example.com", Password: "pass123", Name: "Bob"}); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	_, err := svc.Resolve(context.Background(), domain.LocalSignup{Email: "BOB@example.com", Password: "other123", Name: "Bob 2"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if domain.CodeOf(err) != domain.CodeConflict {
		t.Errorf("expected code %s, got %s", domain.CodeConflict, domain.CodeOf(err))
	}
}

func TestIdentityService_Signup_WeakPassword(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), discardLogger)

	_, err := svc.Resolve(context.Background(), domain.LocalSignup{Email: "c@example.com", Password: "123", Name: "C"})
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestIdentityService_Signup_PasswordTooLong(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)

	_, err := svc.Resolve(context.Background(), domain.LocalSignup{Email: "a@example.com", Password: strings.Repeat("x", 80), Name: "A"})
	if !errors.Is(err, domain.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if code := domain.CodeOf(err); code != domain.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT code, got %q", code)
	}
	if _, err := repo.FindByEmail(context.Background(), "a@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("no account may be created, got %v", err)
	}

	// 72 bytes is the largest password bcrypt accepts.
	if _, err := svc.Resolve(context.Background(), domain.LocalSignup{Email: "b@example.com", Password: strings.Repeat("x", 72), Name: "B"}); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
}

func TestIdentityService_Login(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)
	ctx := context.Background()

	created, err := svc.Resolve(ctx, domain.LocalSignup{Email: "carol@example.com", Password: "s3cret", Name: "Carol"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, err := svc.Resolve(ctx, domain.LocalLogin{Email: "Carol@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("login resolved %q, want %q", user.ID, created.ID)
	}

	if _, err := svc.Resolve(ctx, domain.LocalLogin{Email: "carol@example.com", Password: "wrong!"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Resolve(ctx, domain.LocalLogin{Email: "ghost@example.com", Password: "s3cret"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentityService_Login_OAuthOnlyAccount(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(&domain.User{Email: "dave@example.com", Name: "Dave", GoogleID: "g-1"})
	svc := NewIdentityService(repo, discardLogger)

	_, err := svc.Resolve(context.Background(), domain.LocalLogin{Email: "dave@example.com", Password: "whatever"})
	if !errors.Is(err, domain.ErrOAuthOnlyAccount) {
		t.Fatalf("expected ErrOAuthOnlyAccount, got %v", err)
	}
	if domain.CodeOf(err) != domain.CodeInvalidCredentials {
		t.Errorf("expected code %s, got %s", domain.CodeInvalidCredentials, domain.CodeOf(err))
	}
}

func TestIdentityService_External_CreatesUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)

	user, err := svc.Resolve(context.Background(), domain.ExternalIdentity{
		Provider:    domain.ProviderGoogle,
		ProviderID:  "g-42",
		Email:       "Erin@Example.com",
		DisplayName: "Erin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.GoogleID != "g-42" || user.Email != "erin@example.com" || user.Name != "Erin" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.HasPassword() {
		t.Error("provider accounts must not get a password")
	}
	if repo.writes != 1 {
		t.Errorf("expected 1 write, got %d", repo.writes)
	}
}

func TestIdentityService_External_DefaultName(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), discardLogger)

	user, err := svc.Resolve(context.Background(), domain.ExternalIdentity{
		Provider:   domain.ProviderLinkedIn,
		ProviderID: "li-1",
		Email:      "frank@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Name != "User" {
		t.Errorf("expected default name %q, got %q", "User", user.Name)
	}
}

func TestIdentityService_External_KnownProviderIDDoesNotWrite(t *testing.T) {
	repo := newStubUserRepo()
	seeded := repo.seed(&domain.User{Email: "gina@example.com", Name: "Gina", LinkedInID: "li-7"})
	svc := NewIdentityService(repo, discardLogger)

	// A changed email at the provider must not move the account.
	user, err := svc.Resolve(context.Background(), domain.ExternalIdentity{
		Provider:   domain.ProviderLinkedIn,
		ProviderID: "li-7",
		Email:      "gina.new@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("resolved %q, want %q", user.ID, seeded.ID)
	}
	if repo.writes != 0 {
		t.Errorf("expected no writes, got %d", repo.writes)
	}
}

func TestIdentityService_External_LinksByEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)
	ctx := context.Background()

	local, err := svc.Resolve(ctx, domain.LocalSignup{Email: "hank@example.com", Password: "pass123", Name: "Hank"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	repo.writes = 0

	user, err := svc.Resolve(ctx, domain.ExternalIdentity{
		Provider:    domain.ProviderGoogle,
		ProviderID:  "g-hank",
		Email:       "HANK@example.com",
		DisplayName: "Henry",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != local.ID {
		t.Fatalf("expected merge into %q, got %q", local.ID, user.ID)
	}
	if user.GoogleID != "g-hank" {
		t.Errorf("expected google id to be linked, got %q", user.GoogleID)
	}
	if user.Name != "Hank" {
		t.Errorf("linking must keep the existing name, got %q", user.Name)
	}
	if repo.writes != 1 {
		t.Errorf("expected exactly 1 write, got %d", repo.writes)
	}

	// The password still works after linking.
	if _, err := svc.Resolve(ctx, domain.LocalLogin{Email: "hank@example.com", Password: "pass123"}); err != nil {
		t.Errorf("local login after linking failed: %v", err)
	}
}

func TestIdentityService_External_KeepsExistingProviderID(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-1", Email: "zoe@example.com", DisplayName: "Zoe"})
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	repo.writes = 0

	_, err = svc.Resolve(ctx, domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-2", Email: "zoe@example.com", DisplayName: "Zoe"})
	if !errors.Is(err, domain.ErrProviderInUse) {
		t.Fatalf("expected ErrProviderInUse, got %v", err)
	}
	if repo.writes != 0 {
		t.Errorf("a conflicting identity must not write, got %d writes", repo.writes)
	}

	stored, _ := repo.FindByID(ctx, first.ID)
	if stored.GoogleID != "g-1" {
		t.Errorf("existing google id was replaced with %q", stored.GoogleID)
	}

	again, err := svc.Resolve(ctx, domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-1", Email: "zoe@example.com"})
	if err != nil || again.ID != first.ID {
		t.Fatalf("original identity must still resolve, got %v %v", again, err)
	}
}

func TestIdentityService_External_BothProvidersMergeIntoOneUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-1", Email: "ivy@example.com", DisplayName: "Ivy"})
	if err != nil {
		t.Fatalf("google resolve failed: %v", err)
	}
	second, err := svc.Resolve(ctx, domain.ExternalIdentity{Provider: domain.ProviderLinkedIn, ProviderID: "li-1", Email: "ivy@example.com", DisplayName: "Ivy L"})
	if err != nil {
		t.Fatalf("linkedin resolve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one account, got %q and %q", first.ID, second.ID)
	}
	if second.GoogleID != "g-1" || second.LinkedInID != "li-1" {
		t.Errorf("expected both provider ids, got %+v", second)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Errorf("expected 1 stored user, got %d", n)
	}
}

func TestIdentityService_External_MissingEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)

	_, err := svc.Resolve(context.Background(), domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-9", Email: "  "})
	if !errors.Is(err, domain.ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
	if repo.writes != 0 {
		t.Errorf("expected no writes, got %d", repo.writes)
	}
}

func TestIdentityService_External_ConcurrentCreateFallsBackToLink(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, discardLogger)

	// Another request registers the same email between our lookup and insert.
	var rival *domain.User
	repo.beforeCreate = func() {
		rival = repo.seed(&domain.User{Email: "jane@example.com", Name: "Jane", PasswordHash: "x"})
	}

	user, err := svc.Resolve(context.Background(), domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-jane", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != rival.ID {
		t.Errorf("expected to link into %q, got %q", rival.ID, user.ID)
	}
	if user.GoogleID != "g-jane" {
		t.Errorf("expected google id linked, got %q", user.GoogleID)
	}
	if n, _ := repo.Count(context.Background()); n != 1 {
		t.Errorf("expected 1 stored user, got %d", n)
	}
}

func TestIdentityService_External_RepoError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("db unavailable")
	svc := NewIdentityService(repo, discardLogger)

	_, err := svc.Resolve(context.Background(), domain.ExternalIdentity{Provider: domain.ProviderGoogle, ProviderID: "g-1", Email: "k@example.com"})
	if err == nil {
		t.Fatal("expected error when repo fails, got nil")
	}
	if domain.CodeOf(err) != "" {
		t.Errorf("store failures must not carry a domain code, got %s", domain.CodeOf(err))
	}
}
