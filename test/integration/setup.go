package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	handler "github.com/doable/api/internal/adapters/handler/http"
	repo "github.com/doable/api/internal/adapters/repository/postgres"
	"github.com/doable/api/internal/core/services"
	"github.com/doable/api/internal/logging"
)

const testJWTSecret = "integration-test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Mail        *CapturingDispatcher
	DBContainer testcontainers.Container
}

// CapturingDispatcher records enqueued verification mail instead of
// delivering it.
type CapturingDispatcher struct {
	mu   sync.Mutex
	Jobs []struct{ To, Token string }
}

func (d *CapturingDispatcher) EnqueueVerification(to, token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Jobs = append(d.Jobs, struct{ To, Token string }{to, token})
}

func (d *CapturingDispatcher) LastToken(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.Jobs, "no verification mail was enqueued")
	return d.Jobs[len(d.Jobs)-1].Token
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

// setupTestApp boots the whole application against a throwaway database.
// Email verification is required so the full register/verify/login flow is
// exercised end to end.
func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := repo.Open(dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx, db))

	log, err := logging.New("development")
	require.NoError(t, err)

	userRepo := repo.NewUserRepository(db)
	tokenRepo := repo.NewTokenRepository(db)
	todoRepo := repo.NewTodoRepository(db)

	mail := &CapturingDispatcher{}

	tokenSvc := services.NewTokenService(tokenRepo, services.TokenServiceConfig{
		Secret:               []byte(testJWTSecret),
		AccessTTL:            time.Hour,
		EmailVerificationTTL: time.Hour,
		Issuer:               "doable-api",
		Audience:             "doable-web",
	}, log)
	hasher := services.NewBcryptHasher(bcrypt.MinCost, log)
	authSvc := services.NewAuthService(userRepo, tokenSvc, hasher, mail, true, log)
	todoSvc := services.NewTodoService(todoRepo, log)

	router := handler.NewHandler(handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authSvc, time.Hour, false),
		Todos:     handler.NewTodoHandler(todoSvc),
		Health:    handler.NewHealthHandler(db),
		Users:     userRepo,
		JWTSecret: testJWTSecret,
		Audit:     logging.Audit(log),
	})

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Mail:        mail,
		DBContainer: dbContainer,
	}
}

// request performs a JSON API call and decodes the response body into a
// generic map. An empty token leaves the request unauthenticated.
func (app *TestApp) request(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// registerAndLogin walks a fresh user through the whole onboarding flow and
// returns a usable access token.
func (app *TestApp) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()

	status, _ := app.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "name": "Test User", "password": password,
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = app.request(t, http.MethodPost, "/api/auth/verify-email", "", map[string]any{
		"token": app.Mail.LastToken(t),
	})
	require.Equal(t, http.StatusOK, status)

	status, body := app.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	token, ok := data["accessToken"].(string)
	require.True(t, ok)
	return token
}

func (app *TestApp) Teardown(t *testing.T) {
	t.Helper()
	app.Server.Close()
	require.NoError(t, app.DB.Close())
	require.NoError(t, app.DBContainer.Terminate(context.Background()))
}
