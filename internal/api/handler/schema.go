package handler

import (
	"github.com/ballotbox/voting-api/internal/core/domain"
)

// ── Requests ──────────────────────────────────────────────────────────────────

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name"     validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

type voteRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

// candidateRequest leaves name checks to the admin service so that a blank
// name and a missing one fail the same way.
type candidateRequest struct {
	Name               string `json:"name"                validate:"max=200"`
	ProfileDescription string `json:"profile_description" validate:"max=2000"`
	LinkedInURL        string `json:"linkedin_url"        validate:"omitempty,url"`
}

type createAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type messageResponse struct {
	Message string `json:"message"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user"`
}

type sessionStatusResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

type candidatesResponse struct {
	Candidates []domain.Candidate `json:"candidates"`
}

type hasVotedResponse struct {
	HasVoted bool `json:"hasVoted"`
}

type votersResponse struct {
	Voters []domain.VoterRecord `json:"voters"`
}

type statsSummary struct {
	TotalVotes       int64  `json:"totalVotes"`
	TotalUsers       int64  `json:"totalUsers"`
	VotingPercentage string `json:"votingPercentage"`
	RemainingVoters  int64  `json:"remainingVoters"`
}

type statsResponse struct {
	Summary          statsSummary            `json:"summary"`
	VotesByCandidate []domain.CandidateTally `json:"votesByCandidate"`
	Voters           []domain.VoterRecord    `json:"voters"`
}

type candidateResponse struct {
	Message   string            `json:"message"`
	Candidate *domain.Candidate `json:"candidate"`
}

type usersResponse struct {
	Users []domain.UserSummary `json:"users"`
}

type toggleAdminResponse struct {
	Message string `json:"message"`
	IsAdmin bool   `json:"is_admin"`
}

type promotedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type createAdminResponse struct {
	Message string       `json:"message"`
	User    promotedUser `json:"user"`
}

type resetVotesResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toStatsResponse(t *domain.Tally) statsResponse {
	return statsResponse{
		Summary: statsSummary{
			TotalVotes:       t.TotalVotes,
			TotalUsers:       t.TotalUsers,
			VotingPercentage: t.VotingPercentage,
			RemainingVoters:  t.RemainingVoters,
		},
		VotesByCandidate: t.PerCandidate,
		Voters:           t.Voters,
	}
}
