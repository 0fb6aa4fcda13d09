package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

const defaultStateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("oauth: invalid state")

type stateClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// StateSigner issues and checks the OAuth state parameter: a short-lived
// HS256 token naming the provider the flow was started for.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *StateSigner) Sign(p domain.Provider) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("state nonce: %w", err)
	}
	now := s.now()
	claims := stateClaims{
		Provider: string(p),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        base64.RawURLEncoding.EncodeToString(nonce),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and that state was issued for p.
func (s *StateSigner) Verify(state string, p domain.Provider) error {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return ErrInvalidState
	}
	if claims.Provider != string(p) {
		return ErrInvalidState
	}
	return nil
}
