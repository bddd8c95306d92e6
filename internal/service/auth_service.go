package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/forum-service/internal/auth"
	"github.com/spec-kit/forum-service/internal/config"
	"github.com/spec-kit/forum-service/internal/domain"
	"github.com/spec-kit/forum-service/internal/events"
	"github.com/spec-kit/forum-service/internal/repository"
	apperrors "github.com/spec-kit/forum-service/pkg/util"
)

const invalidCredentials = "Invalid credentials"

// Session is a freshly issued token and the instant it stops verifying.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenCodec
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	rememberTTL time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Clock overrides the token clock; nil uses time.Now.
	Clock func() time.Time
}

// NewAuthService builds the service. Malformed TTL strings are reported as errors so
// startup fails instead of issuing tokens with a surprising lifetime.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	ttl, err := auth.ParseDuration(cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("AUTH_TOKEN_TTL: %w", err)
	}
	rememberTTL, err := auth.ParseDuration(cfg.Auth.RememberTTL)
	if err != nil {
		return nil, fmt.Errorf("AUTH_TOKEN_REMEMBER_TTL: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts []auth.CodecOption
	if deps.Clock != nil {
		opts = append(opts, auth.WithClock(deps.Clock))
	}

	return &AuthService{
		users:       deps.UserRepo,
		tokens:      auth.NewTokenCodec(cfg.Auth.JWTSecret, ttl, opts...),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		rememberTTL: rememberTTL,
	}, nil
}

// Register creates a new member account and signs them in with the default TTL.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, Session, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, Session{}, apperrors.NewValidationError("Username, email and password are required", nil)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, Session{}, err
	}
	if exists {
		return nil, Session{}, apperrors.NewValidationError("Email already exists", nil)
	}
	exists, err = s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, Session{}, err
	}
	if exists {
		return nil, Session{}, apperrors.NewValidationError("Username already exists", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, Session{}, apperrors.NewValidationError("Password must be at most 72 bytes", nil)
	}
	if err != nil {
		return nil, Session{}, err
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, Session{}, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", int64(user.ID)))

	session, err := s.issue(ctx, user.ID, false)
	if err != nil {
		return nil, Session{}, err
	}
	return user, session, nil
}

// Login verifies credentials. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.User, Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, Session{}, apperrors.NewValidationError("Email and password are required", nil)
	}

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Session{}, apperrors.NewValidationError(invalidCredentials, nil)
		}
		return nil, Session{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, Session{}, apperrors.NewValidationError(invalidCredentials, nil)
	}

	session, err := s.issue(ctx, user.ID, rememberMe)
	if err != nil {
		return nil, Session{}, err
	}
	return user, session, nil
}

// User loads a member profile.
func (s *AuthService) User(ctx context.Context, id domain.UserID) (*domain.User, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// TokenCodec exposes the codec for the auth pipeline.
func (s *AuthService) TokenCodec() *auth.TokenCodec {
	return s.tokens
}

func (s *AuthService) issue(ctx context.Context, id domain.UserID, rememberMe bool) (Session, error) {
	ttl := s.tokens.DefaultTTL()
	if rememberMe {
		ttl = s.rememberTTL
	}
	token, expiresAt, err := s.tokens.Issue(id, ttl)
	if err != nil {
		return Session{}, err
	}

	if s.dispatcher != nil {
		event := events.New(events.EventSessionIssued, &id, events.SessionIssuedPayload{
			ExpiresAt:  expiresAt,
			RememberMe: rememberMe,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("audit event dropped", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}
