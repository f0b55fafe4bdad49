package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"findash/internal/core"
	"findash/internal/store"
)

// TokenIssuer signs a bearer token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

type AuthService struct {
	users  store.UserStore
	tokens TokenIssuer
	cost   int
	logger *slog.Logger
}

func NewAuthService(users store.UserStore, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, cost: bcrypt.DefaultCost, logger: logger}
}

// Register creates a user with role "user" and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	u, err := s.CreateUser(ctx, email, password, name, core.RoleUser)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(u)
}

// CreateUser hashes password and stores a new user with the given role.
func (s *AuthService) CreateUser(ctx context.Context, email, password, name, role string) (core.User, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" {
		return core.User{}, &core.ValidationError{Field: "email", Reason: "email and password are required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return core.User{}, &core.ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrUserExists) {
			return core.User{}, err
		}
		return core.User{}, storeError("create user", err)
	}
	s.logger.InfoContext(ctx, "User registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks the credentials. Unknown emails and wrong passwords both fail
// with core.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.users.GetUserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, core.ErrUserNotFound) {
		return AuthResult{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, storeError("get user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, core.ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u core.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: u}, nil
}
