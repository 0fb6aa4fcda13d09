package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/core/ports"
)

// AdminHandler exposes the admin authority. The service checks the admin
// flag on every call; the router adds RequireAdmin in front as well.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Stats returns the election summary, per-candidate counts and voters.
//
// @Summary      Election statistics
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  statsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	tally, err := h.admin.Stats(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(tally))
}

// ListCandidates returns every candidate.
//
// @Summary      List candidates (admin)
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  candidatesResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/candidates [get]
func (h *AdminHandler) ListCandidates(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	candidates, err := h.admin.ListCandidates(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, candidatesResponse{Candidates: candidates})
}

// CreateCandidate adds a candidate.
//
// @Summary      Create candidate
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      candidateRequest  true  "Candidate"
// @Success      201   {object}  candidateResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /admin/candidates [post]
func (h *AdminHandler) CreateCandidate(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	in, err := bindCandidate(c)
	if err != nil {
		return err
	}
	candidate, err := h.admin.CreateCandidate(c.Request().Context(), user, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, candidateResponse{Message: "Candidate added successfully", Candidate: candidate})
}

// UpdateCandidate replaces a candidate's fields.
//
// @Summary      Update candidate
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path      string            true  "Candidate ID"
// @Param        body  body      candidateRequest  true  "Candidate"
// @Success      200   {object}  candidateResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/candidates/{id} [put]
func (h *AdminHandler) UpdateCandidate(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	in, err := bindCandidate(c)
	if err != nil {
		return err
	}
	candidate, err := h.admin.UpdateCandidate(c.Request().Context(), user, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, candidateResponse{Message: "Candidate updated successfully", Candidate: candidate})
}

// DeleteCandidate removes a candidate that has no votes.
//
// @Summary      Delete candidate
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /admin/candidates/{id} [delete]
func (h *AdminHandler) DeleteCandidate(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.admin.DeleteCandidate(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Candidate deleted successfully"})
}

// ListUsers returns every account with its voting status.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  usersResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	users, err := h.admin.ListUsers(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// ToggleAdmin flips another user's admin flag.
//
// @Summary      Toggle admin flag
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  toggleAdminResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id}/toggle-admin [patch]
func (h *AdminHandler) ToggleAdmin(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	isAdmin, err := h.admin.ToggleAdmin(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return err
	}
	msg := "User demoted from admin"
	if isAdmin {
		msg = "User promoted to admin"
	}
	return c.JSON(http.StatusOK, toggleAdminResponse{Message: msg, IsAdmin: isAdmin})
}

// DeleteUser removes another user and their vote.
//
// @Summary      Delete user
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.admin.DeleteUser(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// ResetVotes deletes every vote.
//
// @Summary      Reset all votes
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  resetVotesResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/reset-votes [post]
func (h *AdminHandler) ResetVotes(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	deleted, err := h.admin.ResetVotes(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resetVotesResponse{Message: "All votes reset successfully", Deleted: deleted})
}

// CreateAdmin promotes an existing account by email.
//
// @Summary      Promote user to admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      createAdminRequest  true  "Account email"
// @Success      200   {object}  createAdminResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/create-admin [post]
func (h *AdminHandler) CreateAdmin(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}

	var req createAdminRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	promoted, err := h.admin.PromoteByEmail(c.Request().Context(), user, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, createAdminResponse{
		Message: "User promoted to admin successfully",
		User:    promotedUser{ID: promoted.ID, Email: promoted.Email},
	})
}

func bindCandidate(c echo.Context) (ports.CandidateInput, error) {
	var req candidateRequest
	if err := c.Bind(&req); err != nil {
		return ports.CandidateInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.CandidateInput{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return ports.CandidateInput{
		Name:               req.Name,
		ProfileDescription: req.ProfileDescription,
		LinkedInURL:        req.LinkedInURL,
	}, nil
}
