package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

const defaultAdminName = "Admin User"

// AdminService implements the administrator operations. Each one checks the
// acting user before touching any store.
type AdminService struct {
	candidates ports.CandidateRepository
	votes      ports.VoteRepository
	users      ports.UserRepository
	ledger     ports.VoteService
	logger     zerolog.Logger
}

func NewAdminService(candidates ports.CandidateRepository, votes ports.VoteRepository, users ports.UserRepository, ledger ports.VoteService, logger zerolog.Logger) *AdminService {
	return &AdminService{
		candidates: candidates,
		votes:      votes,
		users:      users,
		ledger:     ledger,
		logger:     logger,
	}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || !actor.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func (s *AdminService) Stats(ctx context.Context, actor *domain.User) (*domain.Tally, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.ledger.Tally(ctx)
}

func (s *AdminService) ListCandidates(ctx context.Context, actor *domain.User) ([]domain.Candidate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.ledger.ListCandidates(ctx)
}

func (s *AdminService) CreateCandidate(ctx context.Context, actor *domain.User, in ports.CandidateInput) (*domain.Candidate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := candidateFromInput(in)
	if err != nil {
		return nil, err
	}

	created, err := s.candidates.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	s.logger.Info().Str("actor_id", actor.ID).Str("candidate_id", created.ID).Msg("candidate created")
	return created, nil
}

func (s *AdminService) UpdateCandidate(ctx context.Context, actor *domain.User, id string, in ports.CandidateInput) (*domain.Candidate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := candidateFromInput(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.candidates.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrCandidateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update candidate: %w", err)
	}

	c.ID = id
	if err := s.candidates.Update(ctx, c); err != nil {
		if errors.Is(err, domain.ErrCandidateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	s.logger.Info().Str("actor_id", actor.ID).Str("candidate_id", id).Msg("candidate updated")
	return c, nil
}

// DeleteCandidate refuses to remove a candidate that has received votes.
func (s *AdminService) DeleteCandidate(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	n, err := s.votes.CountForCandidate(ctx, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if n > 0 {
		return domain.ErrCandidateHasVotes
	}
	if err := s.candidates.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrCandidateNotFound) {
			return err
		}
		return fmt.Errorf("delete candidate: %w", err)
	}
	s.logger.Info().Str("actor_id", actor.ID).Str("candidate_id", id).Msg("candidate deleted")
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.UserSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ToggleAdmin flips the admin flag of another user and returns the new value.
func (s *AdminService) ToggleAdmin(ctx context.Context, actor *domain.User, userID string) (bool, error) {
	if err := requireAdmin(actor); err != nil {
		return false, err
	}
	if userID == actor.ID {
		return false, domain.ErrCannotModifySelf
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, err
		}
		return false, fmt.Errorf("toggle admin: %w", err)
	}

	next := !target.IsAdmin
	if err := s.users.SetAdmin(ctx, userID, next); err != nil {
		return false, fmt.Errorf("toggle admin: %w", err)
	}
	s.logger.Info().Str("actor_id", actor.ID).Str("user_id", userID).Bool("is_admin", next).Msg("admin flag changed")
	return next, nil
}

// DeleteUser removes another user together with their vote.
func (s *AdminService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return domain.ErrCannotDeleteSelf
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info().Str("actor_id", actor.ID).Str("user_id", userID).Msg("user deleted")
	return nil
}

// ResetVotes deletes every vote and returns the number removed.
func (s *AdminService) ResetVotes(ctx context.Context, actor *domain.User) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	n, err := s.votes.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset votes: %w", err)
	}
	s.logger.Warn().Str("actor_id", actor.ID).Int64("deleted", n).Msg("all votes reset")
	return n, nil
}

func (s *AdminService) PromoteByEmail(ctx context.Context, actor *domain.User, email string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("promote: %w", err)
	}
	if user.IsAdmin {
		return nil, domain.ErrAlreadyAdmin
	}
	if err := s.users.SetAdmin(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("promote: %w", err)
	}

	user.IsAdmin = true
	s.logger.Info().Str("actor_id", actor.ID).Str("user_id", user.ID).Msg("user promoted to admin")
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator, or resets the password
// and admin flag of an existing account with that email. It runs from the
// command line, outside any session.
func (s *AdminService) EnsureAdmin(ctx context.Context, email, password, name string) (*domain.User, bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, false, domain.ErrMissingEmail
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
			return nil, false, fmt.Errorf("ensure admin: %w", err)
		}
		if err := s.users.SetAdmin(ctx, user.ID, true); err != nil {
			return nil, false, fmt.Errorf("ensure admin: %w", err)
		}
		user.PasswordHash = hash
		user.IsAdmin = true
		s.logger.Info().Str("user_id", user.ID).Msg("admin account refreshed")
		return user, false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultAdminName
	}
	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}
	s.logger.Info().Str("user_id", created.ID).Msg("admin account created")
	return created, true, nil
}

func candidateFromInput(in ports.CandidateInput) (*domain.Candidate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrCandidateNameEmpty
	}
	return &domain.Candidate{
		Name:               name,
		ProfileDescription: strings.TrimSpace(in.ProfileDescription),
		LinkedInURL:        strings.TrimSpace(in.LinkedInURL),
	}, nil
}
