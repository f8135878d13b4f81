package middlewares

import (
	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CorrelationHeader = "x-correlation-id"

// CorrelationID reuses the caller's correlation id or generates one, and echoes it back.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header(CorrelationHeader, cid)
		c.Next()
	}
}
