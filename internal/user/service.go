package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Service implements the registration and profile use cases on top of
// the repository, the password hasher and the token issuer.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListAll(ctx context.Context) ([]User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// RegisterInput carries the already-validated registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phones   []PhoneInput
}

type PhoneInput struct {
	Number      string
	CityCode    string
	CountryCode string
}

// TokenIssuer produces a signed credential for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

// Register hashes the password, issues a token for the email and persists
// the new user with its phones. The exists check is only a fast path: the
// repository's unique constraint is the authoritative duplicate signal,
// since check-then-insert is not atomic.
func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check email existence")
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		return nil, fmt.Errorf("internal error hashing password: %w", err)
	}

	token, err := s.tokens.Issue(input.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Created:      now,
		Modified:     now,
		LastLogin:    now,
		Token:        token,
		IsActive:     true,
	}
	for _, p := range input.Phones {
		u.Phones = append(u.Phones, Phone{
			ID:          uuid.Must(uuid.NewV4()),
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("Failed to create user in repository")
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return u, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to get user by email in repository")
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

func (s *service) ListAll(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users in repository")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// DeleteByEmail removes the user and, transitively, its phones. Deleting
// an absent user is ErrNotFound, not a silent no-op.
func (s *service) DeleteByEmail(ctx context.Context, email string) error {
	err := s.repo.DeleteByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to delete user in repository")
		return fmt.Errorf("failed to delete user by email: %w", err)
	}

	return nil
}
