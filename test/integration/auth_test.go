package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	email := "ada@example.com"
	password := "Sup3r!secret"

	// 1. Register: account starts unverified, verification mail is queued.
	status, body := app.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "name": "Ada", "password": password,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "check your email")

	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["emailVerified"])
	require.Len(t, app.Mail.Jobs, 1)

	// 2. Login before verification is refused.
	status, body = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Email verification required", body["message"])

	// 3. Duplicate registration conflicts regardless of casing.
	status, body = app.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "ADA@example.com", "name": "Ada", "password": password,
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "An account with this email already exists", body["message"])

	// 4. Weak passwords are rejected before any account is touched.
	status, body = app.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "bob@example.com", "name": "Bob", "password": "weakpassword",
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password does not meet security requirements", body["message"])

	// 5. Verify via the mailed token.
	token := app.Mail.LastToken(t)
	status, body = app.request(t, http.MethodPost, "/api/auth/verify-email", "", map[string]any{
		"token": token,
	})
	require.Equal(t, http.StatusOK, status)
	result := body["data"].(map[string]any)
	assert.Equal(t, true, result["isVerified"])
	assert.Equal(t, false, result["isAlreadyVerified"])

	// 6. The token is single use.
	status, body = app.request(t, http.MethodPost, "/api/auth/verify-email", "", map[string]any{
		"token": token,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Verification link already used", body["message"])

	// 7. Wrong password after verification.
	status, body = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": "Wr0ng!secret",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials provided", body["message"])

	// 8. Successful login returns a profile and an access token.
	status, body = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status)
	login := body["data"].(map[string]any)
	accessToken := login["accessToken"].(string)
	require.NotEmpty(t, accessToken)
	user := login["user"].(map[string]any)
	assert.Equal(t, email, user["email"])
	assert.Equal(t, true, user["emailVerified"])

	// 9. /me echoes the profile for the bearer of the token.
	status, body = app.request(t, http.MethodGet, "/api/auth/me", accessToken, nil)
	require.Equal(t, http.StatusOK, status)
	me := body["data"].(map[string]any)
	assert.Equal(t, email, me["email"])

	// 10. Logout succeeds; the endpoint requires authentication.
	status, _ = app.request(t, http.MethodGet, "/api/auth/logout", accessToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = app.request(t, http.MethodGet, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	// 11. Deactivation cuts off an otherwise valid token immediately.
	_, err := app.DB.Exec(`UPDATE users SET is_active = FALSE WHERE email = $1`, email)
	require.NoError(t, err)

	status, body = app.request(t, http.MethodGet, "/api/auth/me", accessToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Account deactivated", body["message"])
}

func TestHealthEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	status, body := app.request(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "up", data["database"])

	status, body = app.request(t, http.MethodGet, "/api/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["data"].(map[string]any)["status"])

	status, body = app.request(t, http.MethodGet, "/api/health/live", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["data"].(map[string]any)["status"])

	status, body = app.request(t, http.MethodGet, "/api/health/detailed", "", nil)
	require.Equal(t, http.StatusOK, status)
	detailed := body["data"].(map[string]any)
	assert.Equal(t, "ok", detailed["status"])
	assert.Equal(t, "up", detailed["database"])
	assert.Contains(t, detailed, "uptimeSeconds")
}
