package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
	"github.com/doable/api/internal/logging"
)

// AuthService composes the user store, password hasher, token service and
// email dispatcher into the login/register/logout/verify-email flows.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	hasher ports.PasswordHasher
	mail   ports.EmailDispatcher

	// When verification is required, new accounts start unverified and a
	// verification email job is dispatched. Otherwise accounts are created
	// pre-verified.
	verificationRequired bool

	log   *zap.SugaredLogger
	audit *zap.SugaredLogger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	mail ports.EmailDispatcher,
	verificationRequired bool,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		users:                users,
		tokens:               tokens,
		hasher:               hasher,
		mail:                 mail,
		verificationRequired: verificationRequired,
		log:                  log,
		audit:                logging.Audit(log),
	}
}

// ValidateCredentials returns nil for "wrong or missing" and escalates to
// ErrEmailNotVerified only when the password checks out but verification is
// outstanding. Callers depend on that asymmetry.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*domain.UserProfile, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(err, "user_validation", email)
	}
	if user == nil || !user.IsActive {
		reason := "user_not_found"
		if user != nil {
			reason = "account_inactive"
		}
		s.audit.Warnw("login attempt failed", "reason", reason, "email", logging.RedactEmail(email))
		return nil, nil
	}

	match, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		return nil, s.internal(err, "user_validation", email)
	}
	if !match {
		s.audit.Warnw("login attempt failed", "reason", "invalid_password",
			"userId", user.ID, "email", logging.RedactEmail(email))
		return nil, nil
	}

	if !user.EmailVerified {
		s.audit.Warnw("login attempt with unverified email", "userId", user.ID)
		return nil, domain.ErrEmailNotVerified
	}

	return user.Profile(), nil
}

// Login runs its checks in a fixed order: exists, active, verified,
// password. Each failure maps to its canonical message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(err, "login", email)
	}
	if user == nil {
		s.audit.Warnw("login rejected", "reason", "user_not_found", "email", logging.RedactEmail(email))
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.audit.Warnw("login rejected", "reason", "account_deactivated", "userId", user.ID)
		return nil, domain.ErrAccountDeactivated
	}
	if !user.EmailVerified {
		s.audit.Warnw("login rejected", "reason", "email_not_verified", "userId", user.ID)
		return nil, domain.ErrEmailNotVerified
	}

	match, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		return nil, s.internal(err, "login", email)
	}
	if !match {
		s.audit.Warnw("login rejected", "reason", "invalid_password", "userId", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Auth already succeeded; a failed timestamp write is not fatal.
		s.log.Warnw("last login update failed", "userId", user.ID, "error", err)
	}

	s.log.Infow("user logged in", "userId", user.ID, "email", logging.RedactEmail(user.Email))
	return &ports.LoginResult{User: user.Profile(), AccessToken: accessToken}, nil
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(err, "register", email)
	}
	if existing != nil {
		s.audit.Warnw("registration rejected", "reason", "email_exists", "email", logging.RedactEmail(email))
		return nil, domain.ErrEmailExists
	}

	if !s.hasher.ValidateStrength(input.Password) {
		s.audit.Warnw("registration rejected", "reason", "weak_password", "email", logging.RedactEmail(email))
		return nil, domain.ErrWeakPassword
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, ports.CreateUserInput{
		Email:         email,
		Name:          strings.TrimSpace(input.Name),
		Password:      hashed,
		EmailVerified: !s.verificationRequired,
	})
	if err != nil {
		return nil, s.internal(err, "register", email)
	}

	message := "Registration successful. Your account is ready to use."
	if s.verificationRequired {
		token, err := s.tokens.IssueEmailVerificationToken(ctx, user.ID, user.Email)
		if err != nil {
			return nil, err
		}
		s.mail.EnqueueVerification(user.Email, token)
		message = "Registration successful. Please check your email to verify your account."
	}

	s.log.Infow("user registered", "userId", user.ID, "email", logging.RedactEmail(user.Email))
	return &ports.RegisterResult{User: user.Profile(), Message: message}, nil
}

// Logout has no server-side state to clear: without a revocation list the
// access token stays valid until its natural expiry. The HTTP layer clears
// the cookie; this records the event.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	s.log.Infow("user logged out", "userId", userID)
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*ports.VerifyEmailResult, error) {
	subject, err := s.tokens.ValidateEmailVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrVerificationTokenUsed) {
			return nil, err
		}
		return nil, domain.ErrInvalidVerificationToken
	}

	user, err := s.users.GetByID(ctx, subject.ID)
	if err != nil {
		return nil, s.internal(err, "email_verification", subject.Email)
	}
	if user == nil {
		return nil, domain.ErrInvalidVerificationToken
	}

	if user.EmailVerified {
		return &ports.VerifyEmailResult{IsVerified: true, IsAlreadyVerified: true}, nil
	}

	if _, err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, s.internal(err, "email_verification", user.Email)
	}

	s.log.Infow("email verified", "userId", user.ID)
	return &ports.VerifyEmailResult{IsVerified: true, IsAlreadyVerified: false}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.internal(err, "me", "")
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user.Profile(), nil
}

// internal logs the real cause with redacted context and returns the single
// generic error callers are allowed to see.
func (s *AuthService) internal(err error, operation, email string) error {
	fields := []any{"operation", operation, "error", err}
	if email != "" {
		fields = append(fields, "email", logging.RedactEmail(email))
	}
	s.log.Errorw("auth service error", fields...)
	return domain.ErrInternal
}
