package middleware

import (
	"net/http"

	"go-timeclock/internal/employee"
	"go-timeclock/internal/shared/contextutil"
	"go-timeclock/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderUserID         = "X-User-ID"
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserRole       = "X-User-Role"

	KeyUserID         = "user_id"
	KeyOrganizationID = "organization_id"
	KeyUserRole       = "user_role"
)

// Identity trusts the identity headers set by the gateway in front of the API.
// Requests without a valid user and organization are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		orgID := c.GetHeader(HeaderOrganizationID)
		if _, err := uuid.Parse(userID); err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid user identity", nil)
			c.Abort()
			return
		}
		if _, err := uuid.Parse(orgID); err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid organization identity", nil)
			c.Abort()
			return
		}

		c.Set(KeyUserID, userID)
		c.Set(KeyOrganizationID, orgID)
		c.Set(KeyUserRole, c.GetHeader(HeaderUserRole))

		ctx := contextutil.WithUserID(c.Request.Context(), userID)
		ctx = contextutil.WithOrganizationID(ctx, orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireManager admits only org managers and admins. It must run after Identity.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !employee.Role(c.GetString(KeyUserRole)).IsManager() {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "manager role required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
