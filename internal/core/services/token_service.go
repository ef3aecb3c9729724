package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
	"github.com/doable/api/internal/logging"
)

type TokenServiceConfig struct {
	Secret               []byte
	AccessTTL            time.Duration
	EmailVerificationTTL time.Duration
	Issuer               string
	Audience             string
}

type TokenService struct {
	tokens ports.TokenRepository
	cfg    TokenServiceConfig
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewTokenService(tokens ports.TokenRepository, cfg TokenServiceConfig, log *zap.SugaredLogger) *TokenService {
	return &TokenService{
		tokens: tokens,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// IssueAccessToken signs a bearer token carrying the user's identity and
// account flags. Only signing infrastructure failures surface as errors.
func (s *TokenService) IssueAccessToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":           user.ID.String(),
		"email":         user.Email,
		"name":          user.Name,
		"emailVerified": user.EmailVerified,
		"isActive":      user.IsActive,
		"type":          string(domain.TokenTypeAccess),
		"iat":           now.Unix(),
		"exp":           now.Add(s.cfg.AccessTTL).Unix(),
		"iss":           s.cfg.Issuer,
		"aud":           s.cfg.Audience,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		s.log.Errorw("access token signing failed", "userId", user.ID, "error", err)
		return "", domain.ErrTokenGeneration
	}
	return signed, nil
}

// IssueEmailVerificationToken returns the existing token while one is still
// unexpired, otherwise deletes the stale record and mints a fresh one. Both
// the JWT exp and the persisted expires_at use the configured TTL.
func (s *TokenService) IssueEmailVerificationToken(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	current, err := s.tokens.FindByUserAndType(ctx, userID, domain.TokenTypeEmailVerification)
	if err != nil {
		s.log.Errorw("verification token lookup failed", "userId", userID, "error", err)
		return "", domain.ErrTokenGeneration
	}

	now := s.now()
	if current != nil && !current.Expired(now) {
		return current.Token, nil
	}
	if current != nil {
		if err := s.tokens.Delete(ctx, current.ID); err != nil {
			s.log.Errorw("stale verification token delete failed", "userId", userID, "error", err)
			return "", domain.ErrTokenGeneration
		}
	}

	expiresAt := now.Add(s.cfg.EmailVerificationTTL)
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"type":  string(domain.TokenTypeEmailVerification),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		s.log.Errorw("verification token signing failed", "userId", userID, "error", err)
		return "", domain.ErrTokenGeneration
	}

	record := &domain.VerificationToken{
		UserID:    userID,
		Token:     signed,
		Type:      domain.TokenTypeEmailVerification,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Store(ctx, record); err != nil {
		s.log.Errorw("verification token persist failed", "userId", userID, "error", err)
		return "", domain.ErrTokenGeneration
	}

	s.log.Debugw("email verification token issued",
		"userId", userID, "email", logging.RedactEmail(email))
	return signed, nil
}

// ValidateEmailVerificationToken verifies signature and expiry, checks the
// type claim, looks up the persisted record and marks it used. Expired and
// malformed tokens collapse into the same outward error; a consumed token
// fails distinctly with ErrVerificationTokenUsed.
func (s *TokenService) ValidateEmailVerificationToken(ctx context.Context, token string) (*ports.TokenSubject, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil || !parsed.Valid {
		s.log.Warnw("verification token rejected", "error", err)
		return nil, domain.ErrInvalidVerificationToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidVerificationToken
	}
	if claims["type"] != string(domain.TokenTypeEmailVerification) {
		s.log.Warnw("verification token has wrong type claim", "type", claims["type"])
		return nil, domain.ErrInvalidVerificationToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, domain.ErrInvalidVerificationToken
	}
	email, _ := claims["email"].(string)

	record, err := s.tokens.FindExact(ctx, userID, domain.TokenTypeEmailVerification, token)
	if err != nil {
		s.log.Errorw("verification token lookup failed", "userId", userID, "error", err)
		return nil, domain.ErrInvalidVerificationToken
	}
	if record == nil {
		return nil, domain.ErrInvalidVerificationToken
	}
	if record.IsUsed {
		return nil, domain.ErrVerificationTokenUsed
	}

	if err := s.tokens.MarkUsed(ctx, record.ID); err != nil {
		s.log.Errorw("verification token burn failed", "userId", userID, "error", err)
		return nil, domain.ErrInvalidVerificationToken
	}

	s.log.Debugw("email verification token validated",
		"userId", userID, "email", logging.RedactEmail(email))
	return &ports.TokenSubject{ID: userID, Email: email}, nil
}
