package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func studentClaims(ref string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, Username: "alice", StudentRef: &ref}
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", withClaims(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent}), RequireRoles(models.RoleAdmin), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireRoles(models.RoleAdmin), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSelfStudentAdminBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:studentId/gpa", withClaims(&models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}), RequireSelfStudent("studentId"), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/other/gpa", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSelfStudentOwnPathParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:studentId/gpa", withClaims(studentClaims("st-1")), RequireSelfStudent("studentId"), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/st-1/gpa", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSelfStudentForeignPathParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:studentId/gpa", withClaims(studentClaims("st-1")), RequireSelfStudent("studentId"), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/st-2/gpa", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSelfStudentMissingRef(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:studentId/gpa", withClaims(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent}), RequireSelfStudent("studentId"), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/st-1/gpa", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSelfStudentQueryFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/scores", withClaims(studentClaims("st-1")), RequireSelfStudent(""), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores?studentId=st-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores?studentId=st-2", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSelfStudentNoTargetFailsClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/scores", withClaims(studentClaims("st-1")), RequireSelfStudent(""), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSelfStudentBodyFallbackRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/scores", withClaims(studentClaims("st-1")), RequireSelfStudent(""), func(c *gin.Context) {
		var body struct {
			StudentID string `json:"studentId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"studentId": body.StudentID})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(`{"studentId":"st-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "st-1")
}
