package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Claims represents the JWT claims of an access token issued by the identity
// system.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ErrUnknownRole is returned for a token whose role is not recognised.
var ErrUnknownRole = errors.New("unknown role")

// JWTManager validates HS256 access tokens and, for tooling and tests, issues
// them.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager with the given shared secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret), now: time.Now}
}

// GenerateAccessToken creates a signed access token for userID with role.
func (m *JWTManager) GenerateAccessToken(userID, role string, ttl time.Duration) (string, error) {
	now := m.now().UTC()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and verifies a token. The role is normalised so
// Spanish role names map onto customer, seller and admin. It has the
// middleware.TokenValidator signature.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*middleware.Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, errors.New("access token has no subject")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("access token subject %q is not a valid id", userID)
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownRole, claims.Role)
	}

	return &middleware.Claims{UserID: userID, Role: role}, nil
}

// Actor converts middleware claims into the domain actor.
func Actor(c *middleware.Claims) domain.Actor {
	if c == nil {
		return domain.Actor{}
	}
	return domain.Actor{ID: c.UserID, Role: c.Role}
}
