package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/locvowork/task_manager/internal/auth"
	"github.com/locvowork/task_manager/internal/domain"
)

const MinPasswordLength = 6

// Caller-facing messages. Unknown email and wrong password share one message.
const (
	msgRegisterRequired   = "name, email and password are required"
	msgPasswordTooShort   = "password must be at least 6 characters"
	msgEmailTaken         = "email already registered"
	msgLoginRequired      = "email and password are required"
	msgInvalidCredentials = "invalid email or password"
)

var (
	msgNameTooLong  = fmt.Sprintf("name must be at most %d characters", domain.MaxNameLength)
	msgEmailTooLong = fmt.Sprintf("email must be at most %d characters", domain.MaxEmailLength)
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.UserSummary, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

// TokenIssuer signs a bearer token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type authService struct {
	users  domain.UserRepository
	tokens TokenIssuer
}

func NewAuthService(users domain.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.UserSummary, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.NewValidationError(msgRegisterRequired)
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return nil, domain.NewValidationError(msgNameTooLong)
	}
	if utf8.RuneCountInString(email) > domain.MaxEmailLength {
		return nil, domain.NewValidationError(msgEmailTooLong)
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, domain.NewValidationError(msgPasswordTooShort)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError(msgEmailTaken)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewConflictError(msgEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	summary := user.Summary()
	return &summary, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError(msgLoginRequired)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewUnauthorizedError(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, domain.NewUnauthorizedError(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{Token: token, User: user.Summary()}, nil
}
