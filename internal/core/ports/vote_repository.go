package ports

import (
	"context"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// CandidateRepository defines persistence operations for candidates.
type CandidateRepository interface {
	List(ctx context.Context) ([]domain.Candidate, error)
	FindByID(ctx context.Context, id string) (*domain.Candidate, error)
	Create(ctx context.Context, c *domain.Candidate) (*domain.Candidate, error)
	Update(ctx context.Context, c *domain.Candidate) error
	Delete(ctx context.Context, id string) error
}

// VoteRepository handles vote persistence.
type VoteRepository interface {
	// Insert stores v. The store rejects a second vote for the same user with
	// domain.ErrAlreadyVoted even when the caller's pre-check raced.
	Insert(ctx context.Context, v *domain.Vote) error
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	CountForCandidate(ctx context.Context, candidateID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	// DeleteAll removes every vote and returns how many were deleted.
	DeleteAll(ctx context.Context) (int64, error)
	// TallyByCandidate returns one entry per candidate, zero-vote candidates included.
	TallyByCandidate(ctx context.Context) ([]domain.CandidateTally, error)
	// Voters lists votes joined with users and candidates, newest first.
	Voters(ctx context.Context) ([]domain.VoterRecord, error)
}
