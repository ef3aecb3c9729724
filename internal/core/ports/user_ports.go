package ports

import (
	"context"

	"github.com/doable/api/internal/core/domain"
	"github.com/google/uuid"
)

type CreateUserInput struct {
	Email         string
	Name          string
	Password      string // bcrypt hash, never plaintext
	EmailVerified bool
}

type UserRepository interface {
	// Create persists a new user. Email is normalized (lowercased, trimmed)
	// before the unique check applies.
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
