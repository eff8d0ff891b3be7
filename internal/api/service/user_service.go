package service

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/repository"
	"ctchen222/todo-backend/internal/apperr"
	"ctchen222/todo-backend/internal/auth"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("service")

const (
	msgEmailRegistered    = "Email already registered"
	msgInvalidCredentials = "Invalid credentials"
	msgRegistered         = "User registered successfully"
)

// UserService defines the interface for registration and login.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, email string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
	}
}

// Register creates an account unless the email is already taken.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer span.End()

	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict(msgEmailRegistered)
	case !errors.Is(err, repository.ErrNotFound):
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, apperr.Upstream("failed to check existing user", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Validation("Password cannot be used")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperr.Conflict(msgEmailRegistered)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user insert failed")
		return nil, apperr.Upstream("failed to create user", err)
	}

	slog.InfoContext(ctx, "User registered", "user.id", id)
	return &models.RegisterResponse{Message: msgRegistered, ID: id}, nil
}

// Login checks the credentials and issues an access token. Unknown emails
// and wrong passwords fail identically.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "user lookup failed")
			return nil, apperr.Upstream("failed to load user", err)
		}
		s.hasher.VerifyDummy(req.Password)
		return nil, apperr.Auth(msgInvalidCredentials)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, apperr.Auth(msgInvalidCredentials)
	}

	token, _, err := s.tokens.Issue(user.Email, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token signing failed")
		return nil, apperr.Upstream("failed to issue token", err)
	}

	return &models.LoginResponse{AccessToken: token, TokenType: auth.TokenType}, nil
}

// Me resolves the authenticated subject back to its account.
func (s *userService) Me(ctx context.Context, email string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Me")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Auth("Invalid token")
		}
		return nil, apperr.Upstream("failed to load user", err)
	}
	return user, nil
}
