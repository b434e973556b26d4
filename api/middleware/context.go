package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/customeros/invoicextract/internal/utils"
)

const RequestIdHeader = "X-Request-Id"

// CustomContextMiddleware adds custom context to all requests
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.WithCustomContextFromGinRequest(c, appSource, RequestIdHeader)
		c.Header(RequestIdHeader, utils.GetRequestIdFromContext(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
