package services

import (
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

type BcryptHasher struct {
	cost int
	log  *zap.SugaredLogger
}

func NewBcryptHasher(cost int, log *zap.SugaredLogger) ports.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost, log: log}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		h.log.Errorw("password hashing failed", "error", err)
		return "", domain.ErrHashingFailed
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	h.log.Errorw("password comparison failed", "error", err)
	return false, domain.ErrHashingFailed
}

func (h *BcryptHasher) ValidateStrength(plaintext string) bool {
	return ValidPasswordStrength(plaintext)
}

// ValidPasswordStrength reports whether a password is at least 8 characters
// and contains an uppercase letter, a lowercase letter, a digit and a symbol
// from the fixed punctuation set. Pure predicate, no side effects.
func ValidPasswordStrength(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
