package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// bcrypt refuses input longer than maxPasswordBytes.
const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
)

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", domain.ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return "", domain.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
