package http

import (
	"net/http"
	"time"

	"github.com/doable/api/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	cookieTTL    time.Duration
	secureCookie bool
}

func NewAuthHandler(authService ports.AuthService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), ports.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, result.Message, result.User)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setAccessTokenCookie(w, result.AccessToken)
	respond(w, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := UserID(r.Context()); ok {
		_ = h.authService.Logout(r.Context(), userID)
	}

	h.expireAccessTokenCookie(w)
	respond(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		respondError(w, r, err)
		return
	}

	message := "Email verified successfully"
	if result.IsAlreadyVerified {
		message = "Email is already verified"
	}
	respond(w, http.StatusOK, message, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		respondErrorMessage(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "", profile)
}

func (h *AuthHandler) setAccessTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cookieTTL.Seconds()),
	})
}

func (h *AuthHandler) expireAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", MaxAge: -1, Path: "/", HttpOnly: true})
}
