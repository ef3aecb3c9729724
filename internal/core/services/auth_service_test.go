package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

type fakeUserRepo struct {
	byEmail          map[string]*domain.User
	lastLoginUpdates []uuid.UUID
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{byEmail: map[string]*domain.User{}}
	for _, u := range users {
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, input ports.CreateUserInput) (*domain.User, error) {
	user := &domain.User{
		ID:            uuid.New(),
		Email:         input.Email,
		Name:          input.Name,
		Password:      input.Password,
		EmailVerified: input.EmailVerified,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.byEmail[email], nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.lastLoginUpdates = append(r.lastLoginUpdates, id)
	return nil
}

func (r *fakeUserRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.EmailVerified = true
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// plainHasher compares passwords verbatim so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (plainHasher) Verify(plaintext, hash string) (bool, error) {
	return "hashed:"+plaintext == hash, nil
}

func (plainHasher) ValidateStrength(plaintext string) bool { return ValidPasswordStrength(plaintext) }

type fakeDispatcher struct {
	sent []string
}

func (d *fakeDispatcher) EnqueueVerification(to, _ string) {
	d.sent = append(d.sent, to)
}

func newTestAuthService(users *fakeUserRepo, verificationRequired bool) (*AuthService, *fakeDispatcher) {
	dispatcher := &fakeDispatcher{}
	tokens := newTestTokenService(newFakeTokenRepo())
	svc := NewAuthService(users, tokens, plainHasher{}, dispatcher, verificationRequired, testLogger())
	return svc, dispatcher
}

func activeUser(email, password string) *domain.User {
	return &domain.User{
		ID:            uuid.New(),
		Email:         email,
		Name:          "Test User",
		Password:      "hashed:" + password,
		EmailVerified: true,
		IsActive:      true,
	}
}

func TestLoginChecksInOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newTestAuthService(newFakeUserRepo(), false)
		_, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("deactivated account wins over wrong password", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		user.IsActive = false
		svc, _ := newTestAuthService(newFakeUserRepo(user), false)

		_, err := svc.Login(ctx, "ada@example.com", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrAccountDeactivated)
	})

	t.Run("unverified email wins over wrong password", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		user.EmailVerified = false
		svc, _ := newTestAuthService(newFakeUserRepo(user), true)

		_, err := svc.Login(ctx, "ada@example.com", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrEmailNotVerified)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		svc, _ := newTestAuthService(newFakeUserRepo(user), false)

		_, err := svc.Login(ctx, "ada@example.com", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("success issues token and records login", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		repo := newFakeUserRepo(user)
		svc, _ := newTestAuthService(repo, false)

		result, err := svc.Login(ctx, "ada@example.com", "Sup3r!secret")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Equal(t, []uuid.UUID{user.ID}, repo.lastLoginUpdates)
	})
}

func TestValidateCredentialsAsymmetry(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user yields nil nil", func(t *testing.T) {
		svc, _ := newTestAuthService(newFakeUserRepo(), false)
		profile, err := svc.ValidateCredentials(ctx, "nobody@example.com", "whatever")
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("wrong password yields nil nil", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		svc, _ := newTestAuthService(newFakeUserRepo(user), false)

		profile, err := svc.ValidateCredentials(ctx, "ada@example.com", "wrong-password")
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("right password but unverified escalates", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		user.EmailVerified = false
		svc, _ := newTestAuthService(newFakeUserRepo(user), true)

		_, err := svc.ValidateCredentials(ctx, "ada@example.com", "Sup3r!secret")
		assert.ErrorIs(t, err, domain.ErrEmailNotVerified)
	})

	t.Run("valid credentials", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		svc, _ := newTestAuthService(newFakeUserRepo(user), false)

		profile, err := svc.ValidateCredentials(ctx, "ada@example.com", "Sup3r!secret")
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, user.ID, profile.ID)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects duplicate email", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		svc, _ := newTestAuthService(newFakeUserRepo(user), false)

		_, err := svc.Register(ctx, ports.RegisterInput{
			Email: "Ada@Example.com ", Name: "Ada", Password: "Sup3r!secret",
		})
		assert.ErrorIs(t, err, domain.ErrEmailExists)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		svc, _ := newTestAuthService(newFakeUserRepo(), false)

		_, err := svc.Register(ctx, ports.RegisterInput{
			Email: "ada@example.com", Name: "Ada", Password: "weak",
		})
		assert.ErrorIs(t, err, domain.ErrWeakPassword)
	})

	t.Run("verification off creates verified account, no mail", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc, dispatcher := newTestAuthService(repo, false)

		result, err := svc.Register(ctx, ports.RegisterInput{
			Email: "ada@example.com", Name: "Ada", Password: "Sup3r!secret",
		})
		require.NoError(t, err)
		assert.True(t, result.User.EmailVerified)
		assert.Empty(t, dispatcher.sent)
		assert.Contains(t, result.Message, "ready to use")
	})

	t.Run("verification on enqueues mail", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc, dispatcher := newTestAuthService(repo, true)

		result, err := svc.Register(ctx, ports.RegisterInput{
			Email: "Ada@Example.com", Name: "Ada", Password: "Sup3r!secret",
		})
		require.NoError(t, err)
		assert.False(t, result.User.EmailVerified)
		assert.Equal(t, []string{"ada@example.com"}, dispatcher.sent)
		assert.Contains(t, result.Message, "check your email")
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies a pending account", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc, _ := newTestAuthService(repo, true)

		_, err := svc.Register(ctx, ports.RegisterInput{
			Email: "ada@example.com", Name: "Ada", Password: "Sup3r!secret",
		})
		require.NoError(t, err)

		user := repo.byEmail["ada@example.com"]
		token, err := svc.tokens.IssueEmailVerificationToken(ctx, user.ID, user.Email)
		require.NoError(t, err)

		result, err := svc.VerifyEmail(ctx, token)
		require.NoError(t, err)
		assert.True(t, result.IsVerified)
		assert.False(t, result.IsAlreadyVerified)
		assert.True(t, repo.byEmail["ada@example.com"].EmailVerified)
	})

	t.Run("already verified short circuits", func(t *testing.T) {
		user := activeUser("ada@example.com", "Sup3r!secret")
		repo := newFakeUserRepo(user)
		svc, _ := newTestAuthService(repo, true)

		token, err := svc.tokens.IssueEmailVerificationToken(ctx, user.ID, user.Email)
		require.NoError(t, err)

		result, err := svc.VerifyEmail(ctx, token)
		require.NoError(t, err)
		assert.True(t, result.IsVerified)
		assert.True(t, result.IsAlreadyVerified)
	})

	t.Run("reused token fails distinctly", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc, _ := newTestAuthService(repo, true)

		_, err := svc.Register(ctx, ports.RegisterInput{
			Email: "ada@example.com", Name: "Ada", Password: "Sup3r!secret",
		})
		require.NoError(t, err)

		user := repo.byEmail["ada@example.com"]
		token, err := svc.tokens.IssueEmailVerificationToken(ctx, user.ID, user.Email)
		require.NoError(t, err)

		_, err = svc.VerifyEmail(ctx, token)
		require.NoError(t, err)

		_, err = svc.VerifyEmail(ctx, token)
		assert.ErrorIs(t, err, domain.ErrVerificationTokenUsed)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc, _ := newTestAuthService(newFakeUserRepo(), true)
		_, err := svc.VerifyEmail(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrInvalidVerificationToken)
	})
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	user := activeUser("ada@example.com", "Sup3r!secret")
	svc, _ := newTestAuthService(newFakeUserRepo(user), false)

	profile, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, profile.Email)

	_, err = svc.Me(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
