package middleware

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSelfStudent restricts students to resources tied to their own
// student record. Admin and teacher roles pass through unconditionally.
//
// The target student ID is resolved from the named path parameter first, then
// the studentId query parameter, then a studentId field in a JSON body. The
// request fails closed when the claims carry no student reference or when no
// target can be resolved.
func RequireSelfStudent(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role == models.RoleAdmin || claims.Role == models.RoleTeacher {
			c.Next()
			return
		}

		if claims.StudentRef == nil || *claims.StudentRef == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student record"))
			c.Abort()
			return
		}

		target := resolveTargetStudent(c, param)
		if target == "" || target != *claims.StudentRef {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "access limited to your own records"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func resolveTargetStudent(c *gin.Context, param string) string {
	if param != "" {
		if v := c.Param(param); v != "" {
			return v
		}
	}
	if v := c.Query("studentId"); v != "" {
		return v
	}
	return studentIDFromBody(c)
}

// studentIDFromBody peeks at a JSON body for a studentId field, restoring the
// body so the handler can bind it again.
func studentIDFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		StudentID string `json:"studentId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.StudentID
}
