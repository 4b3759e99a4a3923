package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	created   []*models.User
	createErr error
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, user)
	return nil
}

type mockExistsChecker struct {
	exists bool
	err    error
}

func (m *mockExistsChecker) Exists(ctx context.Context, id string) (bool, error) {
	return m.exists, m.err
}

func newTestAuthService(users *mockUserRepo, students *mockExistsChecker) *AuthService {
	return NewAuthService(users, students, validator.New(), zap.NewNop(), AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "records-api",
	})
}

func TestRegisterDefaultsToStudentRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := newTestAuthService(repo, &mockExistsChecker{exists: true})

	info, err := svc.Register(context.Background(), models.RegisterRequest{Username: "Alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)
	assert.Equal(t, "alice", info.Username)
	require.Len(t, repo.created, 1)
	assert.NotEqual(t, "secret1", repo.created[0].PasswordHash)
}

func TestRegisterRejectsUnknownStudentRef(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	svc := newTestAuthService(repo, &mockExistsChecker{exists: false})

	ref := "7c9f3d1a-0c0c-4a36-9a76-07b90de0ec88"
	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "bob", Password: "secret1", StudentRef: &ref})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidReference.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"alice": {ID: "u1", Username: "alice"}}}
	svc := newTestAuthService(repo, &mockExistsChecker{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "Alice", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginIssuesBothTokenKinds(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	ref := "7c9f3d1a-0c0c-4a36-9a76-07b90de0ec88"
	repo := &mockUserRepo{users: map[string]*models.User{
		"alice": {ID: "u1", Username: "alice", PasswordHash: string(hash), Role: models.RoleStudent, StudentRef: &ref},
	}}
	svc := newTestAuthService(repo, &mockExistsChecker{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.NotEqual(t, res.AccessToken, res.RefreshToken)

	claims, err := svc.VerifyToken(res.AccessToken, models.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	require.NotNil(t, claims.StudentRef)
	assert.Equal(t, ref, *claims.StudentRef)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockUserRepo{users: map[string]*models.User{
		"alice": {ID: "u1", Username: "alice", PasswordHash: string(hash), Role: models.RoleAdmin},
	}}
	svc := newTestAuthService(repo, &mockExistsChecker{})

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "password"})
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, appErrors.FromError(unknownErr).Message, appErrors.FromError(wrongErr).Message)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(unknownErr).Code)
}

func TestRefreshPreservesStudentRef(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{}, &mockExistsChecker{})
	ref := "7c9f3d1a-0c0c-4a36-9a76-07b90de0ec88"
	refreshToken, err := svc.IssueToken(models.TokenRefresh, models.JWTClaims{
		UserID: "u1", Role: models.RoleStudent, Username: "alice", StudentRef: &ref,
	})
	require.NoError(t, err)

	accessToken, err := svc.Refresh(refreshToken)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(accessToken, models.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	require.NotNil(t, claims.StudentRef)
	assert.Equal(t, ref, *claims.StudentRef)
}

func TestVerifyTokenRejectsWrongKind(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{}, &mockExistsChecker{})
	accessToken, err := svc.IssueToken(models.TokenAccess, models.JWTClaims{UserID: "u1", Role: models.RoleAdmin, Username: "root"})
	require.NoError(t, err)

	_, err = svc.VerifyToken(accessToken, models.TokenRefresh)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockExistsChecker{}, validator.New(), zap.NewNop(), AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  -time.Minute,
		RefreshExpiry: time.Hour,
	})
	token, err := svc.IssueToken(models.TokenAccess, models.JWTClaims{UserID: "u1", Role: models.RoleAdmin, Username: "root"})
	require.NoError(t, err)

	_, err = svc.VerifyToken(token, models.TokenAccess)
	require.Error(t, err)
}

func TestVerifyTokenRejectsMalformedClaims(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{}, &mockExistsChecker{})
	token, err := svc.IssueToken(models.TokenAccess, models.JWTClaims{UserID: "u1", Role: "superuser", Username: "root"})
	require.NoError(t, err)

	_, err = svc.VerifyToken(token, models.TokenAccess)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "malformed")
}
