package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/pkg/metrics"
)

const tokenType = "Bearer"

// dummyPassword is hashed at construction and verified against when a login
// names an unknown user, so both failure paths cost one hash comparison.
const dummyPassword = "dummy-password-for-unknown-users"

// AuthService implements login, token authentication and registration.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	throttle ports.LoginThrottle
	tokenTTL time.Duration
	logger   zerolog.Logger

	dummyDigest string
}

// NewAuthService wires the auth use cases. throttle may be nil, which
// disables login lockout. It fails when hasher cannot produce the digest
// used for unknown-user logins.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	throttle ports.LoginThrottle,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) (*AuthService, error) {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	dummyDigest, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		throttle:    throttle,
		tokenTTL:    tokenTTL,
		logger:      logger,
		dummyDigest: dummyDigest,
	}, nil
}

// Login checks the password of username and issues an access token. An
// unknown user and a wrong password fail with the same
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if s.locked(ctx, username) {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if user == nil {
		s.hasher.Verify(password, s.dummyDigest)
		return nil, s.rejectLogin(ctx, username)
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.Active {
		return nil, s.rejectLogin(ctx, username)
	}

	token, expiresAt, err := s.tokens.Encode(domain.Identity{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, s.tokenTTL)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("failed to reset login throttle")
		}
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("username", username).Str("role", string(user.Role)).Msg("user logged in")

	return &ports.LoginResult{
		AccessToken: token,
		TokenType:   tokenType,
		Role:        user.Role,
		ID:          user.ID,
		ExpiresAt:   expiresAt,
	}, nil
}

// Authenticate verifies a bearer token. An empty token fails with
// domain.ErrMissingToken; decode failures pass through as
// domain.ErrTokenExpired or domain.ErrTokenInvalid.
func (s *AuthService) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		metrics.TokenChecksTotal.WithLabelValues("missing").Inc()
		return nil, domain.ErrMissingToken
	}

	identity, err := s.tokens.Decode(token)
	switch {
	case err == nil:
		metrics.TokenChecksTotal.WithLabelValues("ok").Inc()
		return identity, nil
	case errors.Is(err, domain.ErrTokenExpired):
		metrics.TokenChecksTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrTokenExpired
	default:
		metrics.TokenChecksTotal.WithLabelValues("invalid").Inc()
		s.logger.Debug().Err(err).Msg("rejected bearer token")
		return nil, domain.ErrTokenInvalid
	}
}

// Register creates a user account. A taken username fails with
// *domain.DuplicateValueError.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.InvalidInput("username and password are required")
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, domain.InvalidInput("role must be one of STAFF or ADMIN")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(username, hash, role)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Str("role", string(role)).Msg("user registered")
	return user, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, username string) error {
	metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	if s.throttle != nil {
		if err := s.throttle.RegisterFailure(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
		}
	}
	return domain.ErrInvalidCredentials
}

func (s *AuthService) locked(ctx context.Context, username string) bool {
	if s.throttle == nil {
		return false
	}
	locked, err := s.throttle.Locked(ctx, username)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("login throttle unavailable")
		return false
	}
	return locked
}
