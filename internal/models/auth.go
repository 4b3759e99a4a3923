package models

import "github.com/golang-jwt/jwt/v5"

// TokenKind distinguishes the two issued token types. Each kind is signed
// with its own secret and lifetime.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// RegisterRequest creates a new principal. Admin-gated at the route level.
type RegisterRequest struct {
	Username   string   `json:"username" validate:"required,min=3"`
	Password   string   `json:"password" validate:"required,min=6"`
	Role       UserRole `json:"role" validate:"omitempty,oneof=admin teacher student"`
	StudentRef *string  `json:"studentRef" validate:"omitempty,uuid"`
}

// LoginRequest holds credentials for authenticating a principal.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserInfo describes the authenticated principal in responses. The password
// hash never leaves the service layer.
type UserInfo struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Role       UserRole `json:"role"`
	StudentRef *string  `json:"studentRef,omitempty"`
}

// LoginResult carries the issued token pair alongside the public user info.
// Handlers turn the tokens into cookies; they are not part of the JSON body.
type LoginResult struct {
	User         UserInfo
	AccessToken  string
	RefreshToken string
}

// JWTClaims is the single claim shape shared by issuance and verification of
// both token kinds. StudentRef must survive the refresh round-trip unchanged
// or student self-service silently breaks.
type JWTClaims struct {
	UserID     string   `json:"uid"`
	Role       UserRole `json:"role"`
	Username   string   `json:"username"`
	StudentRef *string  `json:"studentRef"`
	jwt.RegisteredClaims
}
