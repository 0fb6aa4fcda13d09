package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stores. A single mutex per store plays the role of the unique
// indexes the Mongo collections carry.
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	votes  *stubVoteRepo

	writes    int   // Create, LinkProvider, Set*, Consume and Delete calls
	createErr error // returned by Create when set
	findErr   error // returned by every Find* when set

	// beforeCreate runs inside Create before the email check, outside the lock.
	beforeCreate func()
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ResetTokenExpiry != nil {
		t := *u.ResetTokenExpiry
		c.ResetTokenExpiry = &t
	}
	return &c
}

func (r *stubUserRepo) seed(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		r.nextID++
		u.ID = fmt.Sprintf("user_%d", r.nextID)
	}
	r.byID[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByProviderID(_ context.Context, p domain.Provider, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.ProviderID(p) == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.beforeCreate != nil {
		hook := r.beforeCreate
		r.beforeCreate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	c := cloneUser(user)
	r.nextID++
	c.ID = fmt.Sprintf("user_%d", r.nextID)
	r.byID[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) LinkProvider(_ context.Context, userID string, p domain.Provider, providerID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	for _, u := range r.byID {
		if u.ID != userID && u.ProviderID(p) == providerID {
			return nil, domain.ErrProviderLinked
		}
	}
	u, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if cur := u.ProviderID(p); cur != "" && cur != providerID {
		return nil, domain.ErrProviderInUse
	}
	u.SetProviderID(p, providerID)
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ResetToken != "" && u.ResetToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ConsumeResetToken(_ context.Context, token, hash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	for _, u := range r.byID {
		if u.ResetToken == token && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			u.PasswordHash = hash
			u.ResetToken = ""
			u.ResetTokenExpiry = nil
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) SetPassword(_ context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) SetAdmin(_ context.Context, userID string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (r *stubUserRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	r.writes++
	_, ok := r.byID[userID]
	delete(r.byID, userID)
	r.mu.Unlock()
	if !ok {
		return domain.ErrUserNotFound
	}
	if r.votes != nil {
		r.votes.deleteForUser(userID)
	}
	return nil
}

func (r *stubUserRepo) List(ctx context.Context) ([]domain.UserSummary, error) {
	r.mu.Lock()
	out := make([]domain.UserSummary, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt})
	}
	r.mu.Unlock()
	for i := range out {
		if r.votes != nil {
			out[i].HasVoted, _ = r.votes.ExistsForUser(ctx, out[i].ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

type stubCandidateRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Candidate
	nextID int
}

func newStubCandidateRepo() *stubCandidateRepo {
	return &stubCandidateRepo{byID: make(map[string]*domain.Candidate)}
}

func (r *stubCandidateRepo) seed(name string) domain.Candidate {
	c, _ := r.Create(context.Background(), &domain.Candidate{Name: name})
	return *c
}

func (r *stubCandidateRepo) List(context.Context) ([]domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Candidate, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubCandidateRepo) FindByID(_ context.Context, id string) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCandidateNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCandidateRepo) Create(_ context.Context, c *domain.Candidate) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *c
	clone.ID = fmt.Sprintf("cand_%d", r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubCandidateRepo) Update(_ context.Context, c *domain.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCandidateNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCandidateRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCandidateNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubVoteRepo struct {
	mu         sync.Mutex
	byUser     map[string]domain.Vote
	users      *stubUserRepo
	candidates *stubCandidateRepo
	inserts    int

	// existsHook, when set, replaces ExistsForUser to force races.
	existsHook func(userID string) bool
}

func newStubVoteRepo(users *stubUserRepo, candidates *stubCandidateRepo) *stubVoteRepo {
	r := &stubVoteRepo{byUser: make(map[string]domain.Vote), users: users, candidates: candidates}
	users.votes = r
	return r
}

func (r *stubVoteRepo) Insert(_ context.Context, v *domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if _, ok := r.byUser[v.UserID]; ok {
		return domain.ErrAlreadyVoted
	}
	clone := *v
	clone.ID = "vote_" + v.UserID
	r.byUser[v.UserID] = clone
	return nil
}

func (r *stubVoteRepo) ExistsForUser(_ context.Context, userID string) (bool, error) {
	if r.existsHook != nil {
		return r.existsHook(userID), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUser[userID]
	return ok, nil
}

func (r *stubVoteRepo) CountForCandidate(_ context.Context, candidateID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.byUser {
		if v.CandidateID == candidateID {
			n++
		}
	}
	return n, nil
}

func (r *stubVoteRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byUser)), nil
}

func (r *stubVoteRepo) DeleteAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.byUser))
	r.byUser = make(map[string]domain.Vote)
	return n, nil
}

func (r *stubVoteRepo) deleteForUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}

func (r *stubVoteRepo) TallyByCandidate(ctx context.Context) ([]domain.CandidateTally, error) {
	list, _ := r.candidates.List(ctx)
	out := make([]domain.CandidateTally, 0, len(list))
	for _, c := range list {
		n, _ := r.CountForCandidate(ctx, c.ID)
		out = append(out, domain.CandidateTally{ID: c.ID, Name: c.Name, VoteCount: n})
	}
	return out, nil
}

func (r *stubVoteRepo) Voters(ctx context.Context) ([]domain.VoterRecord, error) {
	r.mu.Lock()
	votes := make([]domain.Vote, 0, len(r.byUser))
	for _, v := range r.byUser {
		votes = append(votes, v)
	}
	r.mu.Unlock()

	sort.Slice(votes, func(i, j int) bool { return votes[i].CreatedAt.After(votes[j].CreatedAt) })
	out := make([]domain.VoterRecord, 0, len(votes))
	for _, v := range votes {
		u, err := r.users.FindByID(ctx, v.UserID)
		if err != nil {
			continue
		}
		c, err := r.candidates.FindByID(ctx, v.CandidateID)
		if err != nil {
			continue
		}
		out = append(out, domain.VoterRecord{
			UserID:        u.ID,
			Name:          u.Name,
			Email:         u.Email,
			CandidateName: c.Name,
			VotedAt:       v.CreatedAt,
		})
	}
	return out, nil
}

type stubSessionStore struct {
	mu      sync.Mutex
	byID    map[string]domain.Session
	touched int
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{byID: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sess.ID] = *sess
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return &sess, nil
}

func (s *stubSessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return domain.ErrUnauthenticated
	}
	sess.ExpiresAt = expiresAt
	s.byID[id] = sess
	s.touched++
	return nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []ports.ResetNotification
	err  error
}

func (n *stubNotifier) NotifyPasswordReset(_ context.Context, r ports.ResetNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, r)
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	users      *stubUserRepo
	candidates *stubCandidateRepo
	votes      *stubVoteRepo
	ledger     *VoteService
	admin      *AdminService
}

func newFixture() *fixture {
	users := newStubUserRepo()
	candidates := newStubCandidateRepo()
	votes := newStubVoteRepo(users, candidates)
	ledger := NewVoteService(candidates, votes, users, discardLogger)
	return &fixture{
		users:      users,
		candidates: candidates,
		votes:      votes,
		ledger:     ledger,
		admin:      NewAdminService(candidates, votes, users, ledger, discardLogger),
	}
}

func (f *fixture) user(name string, admin bool) *domain.User {
	return f.users.seed(&domain.User{
		Email:     name + "@example.com",
		Name:      name,
		IsAdmin:   admin,
		CreatedAt: time.Now().UTC(),
	})
}
