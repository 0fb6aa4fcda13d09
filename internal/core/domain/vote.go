package domain

import "time"

// Candidate is an option users can vote for.
type Candidate struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ProfileDescription string `json:"profile_description"`
	LinkedInURL        string `json:"linkedin_url"`
}

// Vote is the single ballot a user may cast.
type Vote struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CandidateID string    `json:"candidate_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CandidateTally is the vote count for one candidate.
type CandidateTally struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	VoteCount int64  `json:"vote_count"`
}

// VoterRecord describes who voted for whom. Only the admin view fills
// Email and CandidateName.
type VoterRecord struct {
	UserID        string    `json:"user_id,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	CandidateName string    `json:"candidate_voted_for,omitempty"`
	VotedAt       time.Time `json:"vote_time"`
}

// Tally aggregates the election.
type Tally struct {
	TotalVotes       int64            `json:"totalVotes"`
	TotalUsers       int64            `json:"totalUsers"`
	VotingPercentage string           `json:"votingPercentage"`
	RemainingVoters  int64            `json:"remainingVoters"`
	PerCandidate     []CandidateTally `json:"votesByCandidate"`
	Voters           []VoterRecord    `json:"voters"`
}
