package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/vocapp/internal/apperror"
)

// Password length limits. bcrypt ignores everything past 72 bytes, so longer
// passwords are rejected instead of silently truncated.
const (
	MinPasswordLength = 6
	maxPasswordBytes  = 72
)

// defaultCost is the bcrypt work factor for production hashes.
const defaultCost = 12

// PasswordService hashes and verifies account passwords with bcrypt. The
// salt is embedded in the hash, so the hash is the only stored value.
type PasswordService struct {
	cost int
}

// NewPasswordService uses the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest uses a caller-chosen cost. bcrypt.MinCost (4)
// keeps tests fast. Never use it in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash validates the password length and returns its bcrypt hash.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return "", apperror.ValidationFailed("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(plaintext) > maxPasswordBytes {
		return "", apperror.ValidationFailed("password", fmt.Sprintf("password must be %d bytes or fewer", maxPasswordBytes))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash. A mismatch is
// ErrUnauthenticated; a malformed hash is a plain error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperror.Unauthenticated("invalid email or password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
