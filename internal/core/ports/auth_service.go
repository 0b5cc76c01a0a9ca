package ports

import (
	"context"
	"time"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	Role        domain.Role
	ID          string
	ExpiresAt   time.Time
}

// RegisterInput carries the fields of a new user account.
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// Authenticator turns a raw bearer token into a verified identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

type AuthService interface {
	Authenticator
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
}

// PasswordHasher hashes and verifies passwords with a slow, salted hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenCodec signs identities into bearer tokens and verifies them back.
// Encode reports the expiry it signed. Decode fails with
// domain.ErrTokenExpired or domain.ErrTokenInvalid.
type TokenCodec interface {
	Encode(identity domain.Identity, ttl time.Duration) (string, time.Time, error)
	Decode(token string) (*domain.Identity, error)
}

// LoginThrottle tracks failed logins per username.
type LoginThrottle interface {
	Locked(ctx context.Context, username string) (bool, error)
	RegisterFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
