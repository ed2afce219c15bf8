package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/otero-ediciones/lms-api/internal/models"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type fakeAuthRepo struct {
	user          *models.User
	storedToken   *models.RefreshToken
	createdTokens []*models.RefreshToken
	revokedIDs    []string
	revokedAllFor string
	newPassword   string
	audits        []*models.AuditLog
}

func (f *fakeAuthRepo) FindByEmail(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) FindByID(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, _ string, hash string, _ time.Time) error {
	f.newPassword = hash
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedAllFor = userID
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.createdTokens = append(f.createdTokens, token)
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(context.Context, string) (*models.RefreshToken, error) {
	if f.storedToken == nil {
		return nil, sql.ErrNoRows
	}
	return f.storedToken, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	f.revokedIDs = append(f.revokedIDs, id)
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "lms-api",
	}
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "usr-1",
		Email:        "student@example.com",
		Username:     "student",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func TestLogin_Success(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "usr-1", resp.User.ID)
	require.Len(t, repo.createdTokens, 1)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	svc := NewAuthService(&fakeAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLogin_InactiveAccount(t *testing.T) {
	user := activeUser(t, "secret123")
	user.Active = false
	svc := NewAuthService(&fakeAuthRepo{user: user}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshToken_RotatesToken(t *testing.T) {
	repo := &fakeAuthRepo{
		user: activeUser(t, "secret123"),
		storedToken: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    "usr-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedIDs, "tok-1")
	require.Len(t, repo.createdTokens, 1)
}

func TestRefreshToken_ExpiredRejected(t *testing.T) {
	repo := &fakeAuthRepo{
		user: activeUser(t, "secret123"),
		storedToken: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    "usr-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword:     "secret123",
		NewPassword:     "newsecret",
		ConfirmPassword: "newsecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.newPassword)
	assert.Equal(t, "usr-1", repo.revokedAllFor)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.newPassword), []byte("newsecret")))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword:     "nope",
		NewPassword:     "newsecret",
		ConfirmPassword: "newsecret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.newPassword)
}

func TestChangePassword_ConfirmationMismatch(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword:     "secret123",
		NewPassword:     "newsecret",
		ConfirmPassword: "different",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService(&fakeAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
