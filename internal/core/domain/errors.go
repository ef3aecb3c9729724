package domain

import "errors"

// Canonical error per failure kind. Handlers map these to HTTP statuses and
// the texts are the only failure messages that cross the API boundary.
var (
	ErrInvalidCredentials       = errors.New("Invalid credentials provided")
	ErrAccountDeactivated       = errors.New("Account deactivated")
	ErrEmailNotVerified         = errors.New("Email verification required")
	ErrEmailExists              = errors.New("An account with this email already exists")
	ErrWeakPassword             = errors.New("Password does not meet security requirements")
	ErrInvalidVerificationToken = errors.New("Invalid or expired verification link")
	ErrVerificationTokenUsed    = errors.New("Verification link already used")
	ErrTokenGeneration          = errors.New("Unable to complete authentication")
	ErrHashingFailed            = errors.New("Authentication service temporarily unavailable")
	ErrUserNotFound             = errors.New("User not found")
	ErrTodoNotFound             = errors.New("Todo not found")
	ErrValidation               = errors.New("Invalid request data")
	ErrInternal                 = errors.New("An unexpected error occurred")
)
