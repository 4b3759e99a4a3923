package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
)

func myProfileStatus(t *testing.T, claims *models.JWTClaims) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(service.NewStudentService(nil, nil, nil, nil))
	r := gin.New()
	r.GET("/students/me/profile", func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
	}, h.MyProfile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/students/me/profile", nil))
	return w.Code
}

func TestMyProfileRejectsNonStudentRoles(t *testing.T) {
	ref := "0d4f9b0a-7b0f-4f2a-9c39-1f4ab1a6d001"

	// A staff account carrying a studentRef still may not use the self route.
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleTeacher} {
		code := myProfileStatus(t, &models.JWTClaims{UserID: "u1", Role: role, StudentRef: &ref})
		assert.Equal(t, http.StatusForbidden, code)
	}
}

func TestMyProfileRequiresLinkedStudent(t *testing.T) {
	code := myProfileStatus(t, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMyProfileRequiresClaims(t *testing.T) {
	code := myProfileStatus(t, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
