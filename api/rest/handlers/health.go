package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/customeros/invoicextract/services/mailbox"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status reports the session state and the last account run
func Status(state *mailbox.MailboxSessionState) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, state.Snapshot())
	}
}
