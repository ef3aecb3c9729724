package ports

import (
	"context"

	"github.com/doable/api/internal/core/domain"
	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. A mismatch is not an
	// error; only infrastructure failures are.
	Verify(plaintext, hash string) (bool, error)
	ValidateStrength(plaintext string) bool
}

type TokenRepository interface {
	Store(ctx context.Context, token *domain.VerificationToken) error
	// FindByUserAndType returns the stored token of the given type for the
	// user, or nil when none exists.
	FindByUserAndType(ctx context.Context, userID uuid.UUID, tokenType domain.TokenType) (*domain.VerificationToken, error)
	// FindExact looks a record up by the full (userID, type, token) triple.
	FindExact(ctx context.Context, userID uuid.UUID, tokenType domain.TokenType, token string) (*domain.VerificationToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenSubject identifies the user a validated verification token belongs to.
type TokenSubject struct {
	ID    uuid.UUID
	Email string
}

type TokenService interface {
	IssueAccessToken(user *domain.User) (string, error)
	// IssueEmailVerificationToken is idempotent: an unexpired persisted token
	// is returned as-is, an expired one is superseded.
	IssueEmailVerificationToken(ctx context.Context, userID uuid.UUID, email string) (string, error)
	// ValidateEmailVerificationToken burns the token on successful
	// validation: a second call with the same token fails with
	// domain.ErrVerificationTokenUsed.
	ValidateEmailVerificationToken(ctx context.Context, token string) (*TokenSubject, error)
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type LoginResult struct {
	User        *domain.UserProfile `json:"user"`
	AccessToken string              `json:"accessToken"`
}

type RegisterResult struct {
	User    *domain.UserProfile
	Message string
}

type VerifyEmailResult struct {
	IsVerified        bool `json:"isVerified"`
	IsAlreadyVerified bool `json:"isAlreadyVerified"`
}

type AuthService interface {
	// ValidateCredentials returns (nil, nil) for unknown users, deactivated
	// accounts and wrong passwords, and domain.ErrEmailNotVerified when the
	// credentials are right but verification is outstanding. Callers branch
	// on this asymmetry.
	ValidateCredentials(ctx context.Context, email, password string) (*domain.UserProfile, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	// Logout is stateless on the server: the access token stays valid until
	// its natural expiry and only the client-held cookie is cleared.
	Logout(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, token string) (*VerifyEmailResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
}

// EmailDispatcher queues outbound verification mail, fire-and-forget.
type EmailDispatcher interface {
	EnqueueVerification(to, token string)
}
