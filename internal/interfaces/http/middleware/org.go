// Package middleware holds the gin middleware chain for the API server.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OrgHeader carries the caller's organization identity.  Upstream auth (API
// gateway) is responsible for validating it; the engine only scopes by it.
const OrgHeader = "X-Org-ID"

// orgKey is the gin context key the org ID is stored under.
const orgKey = "org_id"

// RequireOrg rejects requests without an organization header.
func RequireOrg() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetHeader(OrgHeader)
		if orgID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "COMMON_008",
				"message": OrgHeader + " header is required",
			})
			return
		}
		c.Set(orgKey, orgID)
		c.Next()
	}
}

// OrgID reads the organization ID stored by RequireOrg.
func OrgID(c *gin.Context) string {
	return c.GetString(orgKey)
}
