package ports

import (
	"context"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// IdentityService resolves an assertion to exactly one user.
type IdentityService interface {
	Resolve(ctx context.Context, a domain.Assertion) (*domain.User, error)
}

// SessionService issues, validates and ends sessions.
type SessionService interface {
	Start(ctx context.Context, user *domain.User) (*domain.Session, error)
	Validate(ctx context.Context, token string) (*domain.User, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	End(ctx context.Context, token string) error
}

// PasswordResetService runs the forgot/reset password flow.
type PasswordResetService interface {
	IssueResetToken(ctx context.Context, email string) error
	ConsumeResetToken(ctx context.Context, token, newPassword string) error
}

// VoteService is the voter-facing ledger.
type VoteService interface {
	ListCandidates(ctx context.Context) ([]domain.Candidate, error)
	HasVoted(ctx context.Context, userID string) (bool, error)
	CastVote(ctx context.Context, userID, candidateID string) error
	Tally(ctx context.Context) (*domain.Tally, error)
	ListVoters(ctx context.Context) ([]domain.VoterRecord, error)
}

// CandidateInput carries the editable candidate fields.
type CandidateInput struct {
	Name               string
	ProfileDescription string
	LinkedInURL        string
}

// AdminService holds the operations reserved to administrators. Every
// method checks the acting user first.
type AdminService interface {
	Stats(ctx context.Context, actor *domain.User) (*domain.Tally, error)
	ListCandidates(ctx context.Context, actor *domain.User) ([]domain.Candidate, error)
	CreateCandidate(ctx context.Context, actor *domain.User, in CandidateInput) (*domain.Candidate, error)
	UpdateCandidate(ctx context.Context, actor *domain.User, id string, in CandidateInput) (*domain.Candidate, error)
	DeleteCandidate(ctx context.Context, actor *domain.User, id string) error
	ListUsers(ctx context.Context, actor *domain.User) ([]domain.UserSummary, error)
	ToggleAdmin(ctx context.Context, actor *domain.User, userID string) (bool, error)
	DeleteUser(ctx context.Context, actor *domain.User, userID string) error
	ResetVotes(ctx context.Context, actor *domain.User) (int64, error)
	PromoteByEmail(ctx context.Context, actor *domain.User, email string) (*domain.User, error)
}
