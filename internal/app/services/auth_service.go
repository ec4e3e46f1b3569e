package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/app/repositories"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/auth"
	"github.com/yigit/practicelog/internal/pkg/logger"
)

// LoginResult is returned after a successful login
type LoginResult struct {
	Member    models.Member
	Token     string
	ExpiresAt time.Time
}

// AuthService handles member login and session checks
type AuthService struct {
	members  *repositories.MemberRepository
	sessions *auth.SessionService
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(members *repositories.MemberRepository, sessions *auth.SessionService, lgr zerolog.Logger) *AuthService {
	return &AuthService{
		members:  members,
		sessions: sessions,
		logger:   logger.Component(lgr, "auth"),
	}
}

// Login checks the member's numeric secret and issues a session token
func (s *AuthService) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	password = strings.TrimSpace(password)
	if name == "" || password == "" {
		return nil, apperrors.NewBadRequestError("name and password are required")
	}

	secret, err := strconv.ParseFloat(password, 64)
	if err != nil {
		return nil, apperrors.NewBadRequestError("password must be numeric")
	}

	member, all, err := s.members.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if member == nil {
		available := make([]string, 0, len(all))
		for _, m := range all {
			available = append(available, m.DisplayName)
		}
		s.logger.Info().Str("name", name).Int("available", len(available)).Msg("Login for unknown member")
		return nil, apperrors.NewMemberNotFoundError("member not found, available: "+strings.Join(available, ", "), available)
	}

	if member.Secret == nil {
		s.logger.Info().Str("memberId", member.ID).Msg("Login rejected, member has no secret")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "member has no password configured")
	}
	if *member.Secret != secret {
		s.logger.Info().Str("memberId", member.ID).Msg("Login rejected, wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(*member)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("memberId", member.ID).Msg("Member logged in")
	return &LoginResult{Member: *member, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a session token into the member it was issued for
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	return s.sessions.Validate(token)
}

// SessionTTL returns how long issued sessions stay valid
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.Expiration()
}
