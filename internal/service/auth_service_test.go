package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type mockUserRepo struct {
	users    map[string]*models.User
	failures map[string]int
	resets   []string
	deleted  []string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: map[string]*models.User{}, failures: map[string]int{}}
	for _, u := range users {
		m.users[u.UserID] = u
	}
	return m
}

func (m *mockUserRepo) FindByID(ctx context.Context, userID string) (*models.User, error) {
	if u, ok := m.users[userID]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.UserID]; ok {
		return repository.ErrAlreadyExists
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) RecordLoginFailure(ctx context.Context, userID string, lockThreshold int) (int, error) {
	m.failures[userID]++
	if m.failures[userID] > lockThreshold {
		if u, ok := m.users[userID]; ok {
			u.Locked = true
		}
	}
	return m.failures[userID], nil
}

func (m *mockUserRepo) ResetLoginFailures(ctx context.Context, userID string) error {
	m.failures[userID] = 0
	m.resets = append(m.resets, userID)
	return nil
}

func (m *mockUserRepo) Verify(ctx context.Context, token string) error {
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			u.Verified = true
			u.VerificationToken = nil
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if u, ok := m.users[userID]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockUserRepo) SoftDelete(ctx context.Context, userID string) error {
	if u, ok := m.users[userID]; ok && !u.Deleted {
		u.Deleted = true
		m.deleted = append(m.deleted, userID)
		return nil
	}
	return sql.ErrNoRows
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		TokenSecret:   "test-secret",
		TokenExpiry:   time.Hour,
		Issuer:        "course-review-api",
		LockThreshold: 5,
		BcryptCost:    bcrypt.MinCost,
	}
}

func verifiedUser(t *testing.T, userID, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		UserID:       userID,
		Email:        userID + "@example.edu",
		PasswordHash: string(hash),
		FirstName:    "Alex",
		LastName:     "Kim",
		Role:         models.RoleStudent,
		Verified:     true,
	}
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	repo := newMockUserRepo(verifiedUser(t, "u123", "Passw0rd!"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, []string{"u123"}, repo.resets)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u123", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), LoginRequest{UserID: "ghost", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
}

func TestLoginWrongPasswordBumpsCounter(t *testing.T) {
	repo := newMockUserRepo(verifiedUser(t, "u123", "Passw0rd!"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
	assert.Equal(t, 1, repo.failures["u123"])
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	repo := newMockUserRepo(verifiedUser(t, "u123", "Passw0rd!"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	var lastErr error
	for i := 0; i < 6; i++ {
		_, lastErr = svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "wrong"})
	}
	assert.Equal(t, appErrors.ErrAccountLocked, lastErr)

	// Even the correct password is rejected once locked.
	_, err := svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "Passw0rd!"})
	assert.Equal(t, appErrors.ErrAccountLocked, err)
}

func TestLoginUnverifiedAccount(t *testing.T) {
	user := verifiedUser(t, "u123", "Passw0rd!")
	user.Verified = false
	svc := NewAuthService(newMockUserRepo(user), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "Passw0rd!"})
	assert.Equal(t, appErrors.ErrAccountUnverified, err)
}

func TestLoginDeletedAccountLooksUnknown(t *testing.T) {
	user := verifiedUser(t, "u123", "Passw0rd!")
	user.Deleted = true
	svc := NewAuthService(newMockUserRepo(user), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "Passw0rd!"})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
}

func TestRegisterAndVerify(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		UserID:    "u456",
		Email:     "u456@example.edu",
		Password:  "Str0ng!pass",
		FirstName: "Jamie",
		LastName:  "Lee",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.VerificationToken)

	// Unverified accounts cannot log in yet.
	_, err = svc.Login(context.Background(), LoginRequest{UserID: "u456", Password: "Str0ng!pass"})
	assert.Equal(t, appErrors.ErrAccountUnverified, err)

	require.NoError(t, svc.VerifyEmail(context.Background(), resp.VerificationToken))
	_, err = svc.Login(context.Background(), LoginRequest{UserID: "u456", Password: "Str0ng!pass"})
	assert.NoError(t, err)
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), nil, nil, testAuthConfig())

	weak := []string{"short1!", "alllowercase1!", "ALLUPPERCASE1!", "NoSymbols123"}
	for _, password := range weak {
		_, err := svc.Register(context.Background(), RegisterRequest{
			UserID:    "u456",
			Email:     "u456@example.edu",
			Password:  password,
			FirstName: "Jamie",
			LastName:  "Lee",
		})
		require.Error(t, err, password)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code, password)
	}
}

func TestVerifyUnknownToken(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), nil, nil, testAuthConfig())

	err := svc.VerifyEmail(context.Background(), "no-such-token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	repo := newMockUserRepo(verifiedUser(t, "u123", "Passw0rd!"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u123", ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "N3w!password",
	})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)

	require.NoError(t, svc.ChangePassword(context.Background(), "u123", ChangePasswordRequest{
		CurrentPassword: "Passw0rd!",
		NewPassword:     "N3w!password",
	}))
	_, err = svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "N3w!password"})
	assert.NoError(t, err)
}

func TestDeleteAccountRequiresPassword(t *testing.T) {
	repo := newMockUserRepo(verifiedUser(t, "u123", "Passw0rd!"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.DeleteAccount(context.Background(), "u123", "wrong")
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.DeleteAccount(context.Background(), "u123", "Passw0rd!"))
	assert.Equal(t, []string{"u123"}, repo.deleted)

	_, err = svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "Passw0rd!"})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := newMockUserRepo(verifiedUser(t, "u123", "Passw0rd!"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), LoginRequest{UserID: "u123", Password: "Passw0rd!"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "another-secret", TokenExpiry: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
