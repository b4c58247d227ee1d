package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/repository"
)

// AccountService manages library members.
type AccountService struct {
	store  AccountStore
	logger *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(store AccountStore, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{store: store, logger: logger}
}

// CreateUserInput defines input for registering a user.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string // optional; key-only users have none
	Role     string
}

// CreateUser validates input, hashes the password and stores the user.
func (s *AccountService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, invalidInput("email %q is not valid", input.Email)
	}

	role := input.Role
	if role == "" {
		role = model.RoleReader
	}
	if role != model.RoleReader && role != model.RoleAdmin {
		return nil, invalidInput("role must be %q or %q", model.RoleReader, model.RoleAdmin)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		Name:      strings.TrimSpace(input.Name),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if input.Password != "" {
		if err := auth.ValidatePassword(input.Password); err != nil {
			return nil, invalidInput("%v", err)
		}
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user_created",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// GetUser returns a user by ID.
func (s *AccountService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Authenticate checks an email and password pair. Unknown emails, key-only
// users and wrong passwords all yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash unreadable",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// SetViolations overwrites a user's violation count.
func (s *AccountService) SetViolations(ctx context.Context, id string, violations int) (*model.User, error) {
	if violations < 0 {
		return nil, invalidInput("violations must not be negative")
	}

	if err := s.store.SetUserViolations(ctx, id, violations); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("set violations: %w", err)
	}

	s.logger.Info("violations_reset",
		slog.String("user_id", id),
		slog.Int("violations", violations),
	)

	return s.GetUser(ctx, id)
}
