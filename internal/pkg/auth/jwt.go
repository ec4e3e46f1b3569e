package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
)

// ErrInvalidFormat is returned for an empty or malformed Authorization header
var ErrInvalidFormat = errors.New("invalid token format")

// SessionConfig defines session token settings
type SessionConfig struct {
	SecretKey   string
	Expiration  time.Duration
	TokenIssuer string
}

// SessionService issues and validates member session tokens
type SessionService struct {
	config SessionConfig
	now    func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(config SessionConfig) *SessionService {
	return &SessionService{
		config: config,
		now:    time.Now,
	}
}

// Claims defines session token content
type Claims struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	jwt.RegisteredClaims
}

// Expiration returns the session lifetime
func (s *SessionService) Expiration() time.Duration {
	return s.config.Expiration
}

// Issue creates a signed session token for the member
func (s *SessionService) Issue(member models.Member) (token string, expiresAt time.Time, err error) {
	now := s.now()
	expiresAt = now.Add(s.config.Expiration)

	claims := &Claims{
		MemberID:   member.ID,
		MemberName: member.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.TokenIssuer,
			Subject:   member.ID,
			ID:        uuid.New().String(),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// Validate parses a session token and returns its claims
func (s *SessionService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithIssuer(s.config.TokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.MemberID == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", ErrInvalidFormat
	}
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token), nil
	}
	return authHeader, nil
}
