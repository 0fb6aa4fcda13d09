package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
	"github.com/ballotbox/voting-api/internal/pkg/metrics"
)

// VoteService records ballots and computes results. One vote per user is
// enforced by the vote store; the lookup before the insert only saves a
// round trip in the common case.
type VoteService struct {
	candidates ports.CandidateRepository
	votes      ports.VoteRepository
	users      ports.UserRepository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewVoteService(candidates ports.CandidateRepository, votes ports.VoteRepository, users ports.UserRepository, logger zerolog.Logger) *VoteService {
	return &VoteService{
		candidates: candidates,
		votes:      votes,
		users:      users,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *VoteService) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	list, err := s.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return list, nil
}

func (s *VoteService) HasVoted(ctx context.Context, userID string) (bool, error) {
	voted, err := s.votes.ExistsForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check vote: %w", err)
	}
	return voted, nil
}

// CastVote records userID's vote for candidateID.
func (s *VoteService) CastVote(ctx context.Context, userID, candidateID string) error {
	if _, err := s.candidates.FindByID(ctx, candidateID); err != nil {
		if errors.Is(err, domain.ErrCandidateNotFound) {
			metrics.VotesCastTotal.WithLabelValues("candidate_not_found").Inc()
			return err
		}
		metrics.VotesCastTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("cast vote: %w", err)
	}

	voted, err := s.votes.ExistsForUser(ctx, userID)
	if err != nil {
		metrics.VotesCastTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("cast vote: %w", err)
	}
	if voted {
		metrics.VotesCastTotal.WithLabelValues("already_voted").Inc()
		return domain.ErrAlreadyVoted
	}

	err = s.votes.Insert(ctx, &domain.Vote{
		UserID:      userID,
		CandidateID: candidateID,
		CreatedAt:   s.now().UTC(),
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyVoted):
		metrics.VotesCastTotal.WithLabelValues("already_voted").Inc()
		return err
	case err != nil:
		metrics.VotesCastTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("cast vote: %w", err)
	}

	metrics.VotesCastTotal.WithLabelValues("ok").Inc()
	s.logger.Info().Str("user_id", userID).Str("candidate_id", candidateID).Msg("vote recorded")
	return nil
}

// Tally computes the full results, voter identities included.
func (s *VoteService) Tally(ctx context.Context) (*domain.Tally, error) {
	totalVotes, err := s.votes.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("tally: count votes: %w", err)
	}
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("tally: count users: %w", err)
	}
	perCandidate, err := s.votes.TallyByCandidate(ctx)
	if err != nil {
		return nil, fmt.Errorf("tally: by candidate: %w", err)
	}
	voters, err := s.votes.Voters(ctx)
	if err != nil {
		return nil, fmt.Errorf("tally: voters: %w", err)
	}

	remaining := totalUsers - totalVotes
	if remaining < 0 {
		remaining = 0
	}
	if perCandidate == nil {
		perCandidate = []domain.CandidateTally{}
	}
	if voters == nil {
		voters = []domain.VoterRecord{}
	}

	return &domain.Tally{
		TotalVotes:       totalVotes,
		TotalUsers:       totalUsers,
		VotingPercentage: votingPercentage(totalVotes, totalUsers),
		RemainingVoters:  remaining,
		PerCandidate:     perCandidate,
		Voters:           voters,
	}, nil
}

// ListVoters returns who has voted, newest first, without revealing emails
// or choices.
func (s *VoteService) ListVoters(ctx context.Context) ([]domain.VoterRecord, error) {
	records, err := s.votes.Voters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	public := make([]domain.VoterRecord, 0, len(records))
	for _, r := range records {
		public = append(public, domain.VoterRecord{Name: r.Name, VotedAt: r.VotedAt})
	}
	return public, nil
}

func votingPercentage(votes, users int64) string {
	if users <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(votes)/float64(users)*100)
}
