package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"pocketideas/api/internal/ids"
	"pocketideas/api/internal/models"
	"pocketideas/api/internal/ratelimit"
	"pocketideas/api/internal/repository"
	"pocketideas/api/internal/security"
)

// AuthService handles registration and the login/logout flow. Login failures
// are deliberately uniform: an unknown email and a wrong password produce the
// same ErrInvalidCredentials, so the endpoint cannot be used to enumerate
// accounts.
type AuthService struct {
	users    UserStore
	sessions *SessionService
	limiter  ratelimit.Limiter
	log      zerolog.Logger
}

func NewAuthService(users UserStore, sessions *SessionService, limiter ratelimit.Limiter, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		log:      log,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Email = normalizeEmail(input.Email)

	fields := fieldErrors{}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		fields.add("email", "valid email is required")
	}
	if input.Password == "" {
		fields.add("password", "password is required")
	}
	if err := fields.toError(); err != nil {
		return models.User{}, err
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: passwordHash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

type LoginResult struct {
	User  models.User
	Token string
}

// Login verifies credentials behind the rate limiter and mints a session.
// The limiter is consulted before any storage access and reset on success so
// a legitimate user is not penalized by earlier failed attempts.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)

	if result := s.limiter.Consume(ctx, email); !result.Allowed {
		s.log.Warn().Str("email", email).Msg("rate limited login attempt")
		return LoginResult{}, &RateLimitedError{
			RetryAfterSeconds: int(math.Ceil(result.RetryAfter.Seconds())),
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Info().Str("email", email).Msg("failed login for unknown email")
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		s.log.Info().Str("email", email).Msg("failed login")
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("rate limit reset failed")
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info().Str("email", email).Msg("successful login")
	return LoginResult{User: user, Token: token}, nil
}

// Logout revokes the session for a token; unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
