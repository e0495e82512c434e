package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
	"github.com/redmonkez12/stocktrack-api/internal/user"
)

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("cannot reset the password of another account")
)

// UserStore is the part of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// AuditRecorder accepts audit entries without reporting failures back.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// UserSummary is the public view of a user returned next to a token.
type UserSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Service handles authentication business logic
type Service struct {
	users    UserStore
	hasher   *PasswordHasher
	tokens   TokenService
	recorder AuditRecorder
	logger   *logging.Logger
}

func NewService(
	users UserStore,
	hasher *PasswordHasher,
	tokens TokenService,
	recorder AuditRecorder,
	logger *logging.Logger,
) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger,
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	// The unique index still settles concurrent registrations of the same email.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	newUser, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recorder.Record(ctx, audit.NewEntry(&newUser.ID, audit.ActionUserRegister, audit.EntityUser, newUser.ID,
		map[string]any{"email": newUser.Email}))

	return newUser, nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords fail with the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existingUser.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(strconv.FormatInt(existingUser.ID, 10))
	if err != nil {
		if errors.Is(err, ErrMissingSecret) {
			return nil, ErrMissingSecret
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &LoginResult{
		Token: token,
		User:  UserSummary{ID: existingUser.ID, Email: existingUser.Email},
	}, nil
}

// ResetPassword replaces the credential hash of an existing account. It is
// the operator path and performs no ownership check.
func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	return s.resetPassword(ctx, nil, email, password)
}

// ChangeOwnPassword resets the password of the account identified by email,
// provided it belongs to actorID.
func (s *Service) ChangeOwnPassword(ctx context.Context, actorID int64, email, password string) error {
	return s.resetPassword(ctx, &actorID, email, password)
}

func (s *Service) resetPassword(ctx context.Context, actorID *int64, email, password string) error {
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if actorID != nil {
				// Do not reveal which other accounts exist.
				return ErrForbidden
			}
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if actorID != nil && *actorID != existingUser.ID {
		return ErrForbidden
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, existingUser.ID, passwordHash); err != nil {
		return err
	}

	s.logger.Info("password reset", "user_id", existingUser.ID, "self_service", actorID != nil)

	s.recorder.Record(ctx, audit.NewEntry(actorID, audit.ActionPasswordReset, audit.EntityUser, existingUser.ID,
		map[string]any{"email": existingUser.Email}))

	return nil
}
