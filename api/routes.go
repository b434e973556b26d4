package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/customeros/invoicextract/api/middleware"
	"github.com/customeros/invoicextract/api/rest/handlers"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/services/mailbox"
)

const AppSource = "invoicextract"

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, runner handlers.RunStarter, state *mailbox.MailboxSessionState, apikey string, log logger.Logger) {
	if runner == nil || state == nil {
		panic("runner and session state cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// Probes
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(state))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  middleware.APIKeyHeader,
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware(AppSource))
	api.Use(middleware.TracingMiddleware())
	{
		api.POST("/runs", handlers.TriggerRun(ctx, runner, log))
	}
}
