package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var ErrEmptyPassword = errors.New("password must not be empty")

// BcryptHasher implements ports.PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost. Costs outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain. Passwords longer than
// MaxPasswordBytes bytes fail with domain.ErrInvalidInput.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if len(plain) > MaxPasswordBytes {
		return "", domain.InvalidInput("password must be at most 72 bytes")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A malformed digest is a
// mismatch.
func (h *BcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
