package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/models"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// RequireInstitution blocks principals that have not completed onboarding.
// Everything behind this middleware can assume a tenant binding in the claims.
func RequireInstitution() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if claims.InstitutionID == "" {
			response.Error(c, appErrors.ErrNoInstitution)
			c.Abort()
			return
		}
		c.Next()
	}
}
