package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type studentRefChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AuthConfig defines configuration for authentication flows. Each token kind
// carries its own secret and lifetime.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// AuthService owns the credential model and the token issuer/verifier.
type AuthService struct {
	users     authUserRepository
	students  studentRefChecker
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, students studentRefChecker, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, students: students, validator: validate, logger: logger, config: config}
}

// Register creates a new principal. The password is stored only as a bcrypt
// hash and never returned.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
	}

	if req.StudentRef != nil {
		exists, err := s.students.Exists(ctx, *req.StudentRef)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate studentRef")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, "invalid studentRef")
		}
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		StudentRef:   req.StudentRef,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	return &models.UserInfo{ID: user.ID, Username: user.Username, Role: user.Role, StudentRef: user.StudentRef}, nil
}

// Login authenticates a principal and issues the access/refresh token pair.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	claims := models.JWTClaims{
		UserID:     user.ID,
		Role:       user.Role,
		Username:   user.Username,
		StudentRef: user.StudentRef,
	}

	accessToken, err := s.IssueToken(models.TokenAccess, claims)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	refreshToken, err := s.IssueToken(models.TokenRefresh, claims)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return &models.LoginResult{
		User:         models.UserInfo{ID: user.ID, Username: user.Username, Role: user.Role, StudentRef: user.StudentRef},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh verifies a refresh token and mints a new access token carrying the
// identical claim payload, studentRef included.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	claims, err := s.VerifyToken(refreshToken, models.TokenRefresh)
	if err != nil {
		return "", err
	}

	payload := models.JWTClaims{
		UserID:     claims.UserID,
		Role:       claims.Role,
		Username:   claims.Username,
		StudentRef: claims.StudentRef,
	}
	accessToken, err := s.IssueToken(models.TokenAccess, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return accessToken, nil
}

// IssueToken signs a token of the given kind embedding the claim payload.
func (s *AuthService) IssueToken(kind models.TokenKind, claims models.JWTClaims) (string, error) {
	secret, expiry, err := s.kindParams(kind)
	if err != nil {
		return "", err
	}

	issuedAt := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken parses and validates a token of the given kind. Signature and
// expiry failures surface as invalid tokens; a structurally wrong claim
// payload is reported as malformed.
func (s *AuthService) VerifyToken(tokenString string, kind models.TokenKind) (*models.JWTClaims, error) {
	secret, _, err := s.kindParams(kind)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "malformed token claims")
	}

	return claims, nil
}

// AccessExpiry exposes the configured access token lifetime for cookie setup.
func (s *AuthService) AccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

// RefreshExpiry exposes the configured refresh token lifetime for cookie setup.
func (s *AuthService) RefreshExpiry() time.Duration {
	return s.config.RefreshExpiry
}

func (s *AuthService) kindParams(kind models.TokenKind) (string, time.Duration, error) {
	switch kind {
	case models.TokenAccess:
		return s.config.AccessSecret, s.config.AccessExpiry, nil
	case models.TokenRefresh:
		return s.config.RefreshSecret, s.config.RefreshExpiry, nil
	}
	return "", 0, appErrors.Clone(appErrors.ErrInternal, "unknown token kind")
}
