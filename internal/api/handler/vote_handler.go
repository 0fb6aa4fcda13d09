package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/core/ports"
)

// VoteHandler exposes the voter-facing ledger. Every route requires a session.
type VoteHandler struct {
	votes ports.VoteService
}

func NewVoteHandler(votes ports.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// ListCandidates returns every candidate.
//
// @Summary      List candidates
// @Tags         votes
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  candidatesResponse
// @Failure      401  {object}  errorResponse
// @Router       /candidates [get]
func (h *VoteHandler) ListCandidates(c echo.Context) error {
	candidates, err := h.votes.ListCandidates(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, candidatesResponse{Candidates: candidates})
}

// CheckVote reports whether the caller has voted.
//
// @Summary      Has the current user voted
// @Tags         votes
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  hasVotedResponse
// @Failure      401  {object}  errorResponse
// @Router       /check-vote [get]
func (h *VoteHandler) CheckVote(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	voted, err := h.votes.HasVoted(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hasVotedResponse{HasVoted: voted})
}

// Vote casts the caller's single vote.
//
// @Summary      Cast a vote
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      voteRequest  true  "Chosen candidate"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /vote [post]
func (h *VoteHandler) Vote(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.votes.CastVote(c.Request().Context(), user.ID, req.CandidateID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Vote submitted successfully"})
}

// Voters lists who voted and when, without revealing their choice.
//
// @Summary      List voters
// @Tags         votes
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  votersResponse
// @Failure      401  {object}  errorResponse
// @Router       /voters [get]
func (h *VoteHandler) Voters(c echo.Context) error {
	voters, err := h.votes.ListVoters(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, votersResponse{Voters: voters})
}
