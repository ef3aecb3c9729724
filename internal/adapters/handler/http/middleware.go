package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

type contextKey string

// UserIDKey holds the authenticated user's id in the request context.
const UserIDKey contextKey = "userID"

// UserID returns the authenticated user's id set by the auth middleware.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

// Authenticator verifies the access token from the Authorization header or
// the access_token cookie, confirms the account still exists and is active,
// and injects the user id into the context. The account check keeps a token
// from outliving a deactivation or deletion.
func Authenticator(secret string, users ports.UserRepository, audit *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				respondErrorMessage(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil {
				audit.Infow("access token rejected", "path", r.URL.Path, "reason", err.Error())
				respondErrorMessage(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if typ, _ := claims["type"].(string); typ != string(domain.TokenTypeAccess) {
				audit.Infow("access token rejected", "path", r.URL.Path, "reason", "wrong token type")
				respondErrorMessage(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			sub, _ := claims["sub"].(string)
			userID, err := uuid.Parse(sub)
			if err != nil {
				audit.Infow("access token rejected", "path", r.URL.Path, "reason", "malformed subject")
				respondErrorMessage(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				respondErrorMessage(w, r, http.StatusInternalServerError, domain.ErrInternal.Error())
				return
			}
			if user == nil {
				audit.Warnw("access token rejected", "path", r.URL.Path, "reason", "user_not_found", "userId", userID)
				respondErrorMessage(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if !user.IsActive {
				audit.Warnw("access token rejected", "path", r.URL.Path, "reason", "account_deactivated", "userId", userID)
				respondErrorMessage(w, r, http.StatusUnauthorized, domain.ErrAccountDeactivated.Error())
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
