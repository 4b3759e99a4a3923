package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// CookieSettings controls how auth cookies are written.
type CookieSettings struct {
	AccessName  string
	RefreshName string
	Secure      bool
}

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookies CookieSettings
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Login verifies credentials and establishes the cookie session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, h.cookies.AccessName, result.AccessToken, h.service.AccessExpiry())
	h.setCookie(c, h.cookies.RefreshName, result.RefreshToken, h.service.RefreshExpiry())
	response.JSON(c, http.StatusOK, gin.H{"user": result.User}, nil)
}

// Refresh re-issues a fresh access token from a valid refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(h.cookies.RefreshName)
	if err != nil || token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token required"))
		return
	}
	accessToken, err := h.service.Refresh(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookie(c, h.cookies.AccessName, accessToken, h.service.AccessExpiry())
	response.JSON(c, http.StatusOK, gin.H{"message": "refreshed"}, nil)
}

// Me returns the verified claims for the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": models.UserInfo{
		ID:         claims.UserID,
		Username:   claims.Username,
		Role:       claims.Role,
		StudentRef: claims.StudentRef,
	}}, nil)
}

// Logout clears both auth cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearCookie(c, h.cookies.AccessName)
	h.clearCookie(c, h.cookies.RefreshName)
	response.JSON(c, http.StatusOK, gin.H{"message": "logged out"}, nil)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.cookies.Secure, true)
}
