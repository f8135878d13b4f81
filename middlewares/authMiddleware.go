package middlewares

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/gin-gonic/gin"
)

type authString string

const bearerPrefix = "Bearer "

// AuthMiddleware attaches operator claims when a valid bearer token is sent.
// Requests without a token pass through; a bad token is rejected.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claim, err := utils.OperatorClaim(strings.TrimSpace(auth[len(bearerPrefix):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), authString("auth"), claim)
		ctx = utils.SetOperatorIdInContext(ctx, claim.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireOperator rejects requests that AuthMiddleware did not authenticate.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CtxValue(c.Request.Context()) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "operator token required"})
			return
		}
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authString("auth")).(*utils.JwtCustomClaim)
	return raw
}
