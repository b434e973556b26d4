package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	apierrors "github.com/customeros/invoicextract/api/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/internal/utils"
)

// RunStarter starts a processing run in the background.
type RunStarter interface {
	Start(ctx context.Context) error
}

// TriggerRun starts a run detached from the request. runCtx outlives the
// request and is cancelled on shutdown.
func TriggerRun(runCtx context.Context, runner RunStarter, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, _ := opentracing.StartSpanFromContext(ctx, "TriggerRun")
		defer span.Finish()
		tracing.TagComponentRest(span)

		requestId := utils.GetRequestIdFromContext(ctx)
		if err := runner.Start(runCtx); err != nil {
			tracing.TraceErr(span, err)
			log.Warnf("Run trigger %s rejected: %v", requestId, err)
			apierrors.Respond(c, err, requestId)
			return
		}

		log.Infof("Run triggered by request %s", requestId)
		c.JSON(http.StatusAccepted, gin.H{"status": "started", "requestId": requestId})
	}
}
