package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/api/middleware"
	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

var errNotStubbed = errors.New("not stubbed")

type stubIdentity struct {
	resolveFn func(ctx context.Context, a domain.Assertion) (*domain.User, error)
}

func (s *stubIdentity) Resolve(ctx context.Context, a domain.Assertion) (*domain.User, error) {
	if s.resolveFn == nil {
		return nil, errNotStubbed
	}
	return s.resolveFn(ctx, a)
}

type stubSessions struct {
	started []*domain.User
	ended   []string
	startFn func(user *domain.User) (*domain.Session, error)
}

func (s *stubSessions) Start(_ context.Context, user *domain.User) (*domain.Session, error) {
	s.started = append(s.started, user)
	if s.startFn != nil {
		return s.startFn(user)
	}
	return &domain.Session{ID: "session-token", UserID: user.ID, ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (s *stubSessions) Validate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubSessions) CurrentUser(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func (s *stubSessions) End(_ context.Context, token string) error {
	s.ended = append(s.ended, token)
	return nil
}

type stubResets struct {
	issued   []string
	issueErr error
	consumed [][2]string
	consume  error
}

func (s *stubResets) IssueResetToken(_ context.Context, email string) error {
	s.issued = append(s.issued, email)
	return s.issueErr
}

func (s *stubResets) ConsumeResetToken(_ context.Context, token, password string) error {
	s.consumed = append(s.consumed, [2]string{token, password})
	return s.consume
}

type stubVotes struct {
	candidates []domain.Candidate
	voted      map[string]bool
	castErr    error
	cast       [][2]string
	voters     []domain.VoterRecord
}

func (s *stubVotes) ListCandidates(context.Context) ([]domain.Candidate, error) {
	return s.candidates, nil
}

func (s *stubVotes) HasVoted(_ context.Context, userID string) (bool, error) {
	return s.voted[userID], nil
}

func (s *stubVotes) CastVote(_ context.Context, userID, candidateID string) error {
	s.cast = append(s.cast, [2]string{userID, candidateID})
	return s.castErr
}

func (s *stubVotes) Tally(context.Context) (*domain.Tally, error) {
	return nil, errNotStubbed
}

func (s *stubVotes) ListVoters(context.Context) ([]domain.VoterRecord, error) {
	return s.voters, nil
}

// stubAdmin enforces the admin flag like the real service so handler tests
// can check that the acting user is passed through.
type stubAdmin struct {
	tally     *domain.Tally
	toggled   bool
	err       error
	lastInput ports.CandidateInput
	lastID    string
}

func (s *stubAdmin) gate(actor *domain.User) error {
	if actor == nil || !actor.IsAdmin {
		return domain.ErrForbidden
	}
	return s.err
}

func (s *stubAdmin) Stats(_ context.Context, actor *domain.User) (*domain.Tally, error) {
	if err := s.gate(actor); err != nil {
		return nil, err
	}
	return s.tally, nil
}

func (s *stubAdmin) ListCandidates(_ context.Context, actor *domain.User) ([]domain.Candidate, error) {
	return []domain.Candidate{}, s.gate(actor)
}

func (s *stubAdmin) CreateCandidate(_ context.Context, actor *domain.User, in ports.CandidateInput) (*domain.Candidate, error) {
	if err := s.gate(actor); err != nil {
		return nil, err
	}
	s.lastInput = in
	return &domain.Candidate{ID: "c-new", Name: in.Name, ProfileDescription: in.ProfileDescription, LinkedInURL: in.LinkedInURL}, nil
}

func (s *stubAdmin) UpdateCandidate(_ context.Context, actor *domain.User, id string, in ports.CandidateInput) (*domain.Candidate, error) {
	if err := s.gate(actor); err != nil {
		return nil, err
	}
	s.lastID, s.lastInput = id, in
	return &domain.Candidate{ID: id, Name: in.Name}, nil
}

func (s *stubAdmin) DeleteCandidate(_ context.Context, actor *domain.User, id string) error {
	s.lastID = id
	return s.gate(actor)
}

func (s *stubAdmin) ListUsers(_ context.Context, actor *domain.User) ([]domain.UserSummary, error) {
	return []domain.UserSummary{}, s.gate(actor)
}

func (s *stubAdmin) ToggleAdmin(_ context.Context, actor *domain.User, userID string) (bool, error) {
	s.lastID = userID
	if err := s.gate(actor); err != nil {
		return false, err
	}
	return s.toggled, nil
}

func (s *stubAdmin) DeleteUser(_ context.Context, actor *domain.User, userID string) error {
	s.lastID = userID
	return s.gate(actor)
}

func (s *stubAdmin) ResetVotes(_ context.Context, actor *domain.User) (int64, error) {
	if err := s.gate(actor); err != nil {
		return 0, err
	}
	return 7, nil
}

func (s *stubAdmin) PromoteByEmail(_ context.Context, actor *domain.User, email string) (*domain.User, error) {
	if err := s.gate(actor); err != nil {
		return nil, err
	}
	return &domain.User{ID: "u-promoted", Email: email, IsAdmin: true}, nil
}

// newContext builds an echo context with the validator installed, as the
// router does. A nil user leaves the request anonymous.
func newContext(method, target string, body io.Reader, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		middleware.SetUser(c, user)
	}
	return c, rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func httpStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
