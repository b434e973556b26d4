package utils

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type CustomContext struct {
	AppSource string
	RequestId string
}

type customContextKeyType string

const customContextKey customContextKeyType = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

// WithCustomContextFromGinRequest keeps the caller's request id from
// requestIdHeader or generates one.
func WithCustomContextFromGinRequest(c *gin.Context, appSource, requestIdHeader string) context.Context {
	requestId := strings.TrimSpace(c.GetHeader(requestIdHeader))
	if requestId == "" {
		requestId = NewRequestId()
	}
	customContext := &CustomContext{
		AppSource: appSource,
		RequestId: requestId,
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func NewRequestId() string {
	id, err := gonanoid.New()
	if err != nil {
		return "unknown"
	}
	return id
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetRequestIdFromContext(ctx context.Context) string {
	return GetContext(ctx).RequestId
}
