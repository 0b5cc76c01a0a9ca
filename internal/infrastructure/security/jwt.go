package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskdesk/task-system/internal/core/domain"
)

const DefaultAlgorithm = "HS256"

// tokenClaims is the token payload: id, username, role and the registered
// exp/iat/jti claims.
type tokenClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec implements ports.TokenCodec with HMAC-signed JWTs.
type JWTCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// CodecOption configures a JWTCodec.
type CodecOption func(*JWTCodec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) { c.now = now }
}

// NewJWTCodec builds a codec signing with secret and algorithm, which must
// be one of HS256, HS384 or HS512. An empty algorithm means HS256.
func NewJWTCodec(secret, algorithm string, opts ...CodecOption) (*JWTCodec, error) {
	if secret == "" {
		return nil, errors.New("jwt: secret must not be empty")
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("jwt: unsupported signing algorithm %q", algorithm)
	}

	c := &JWTCodec{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs identity with an expiry of now+ttl, truncated to seconds,
// and returns that expiry.
func (c *JWTCodec) Encode(identity domain.Identity, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims := tokenClaims{
		UserID:   identity.ID,
		Username: identity.Username,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp.Time, nil
}

// Decode verifies token and returns the identity it carries. An expired but
// otherwise valid token yields domain.ErrTokenExpired; any other defect
// (signature, algorithm, structure, unknown role) yields domain.ErrTokenInvalid.
func (c *JWTCodec) Decode(token string) (*domain.Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	exp := claims.ExpiresAt.Time
	if !c.now().Before(exp) {
		return nil, domain.ErrTokenExpired
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok || claims.UserID == "" || claims.Username == "" {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.Identity{
		ID:        claims.UserID,
		Username:  claims.Username,
		Role:      role,
		ExpiresAt: exp,
	}, nil
}
