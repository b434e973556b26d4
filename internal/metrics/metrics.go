package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// messages routed per outcome folder
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoicextract_messages_total",
			Help: "Total number of mailbox messages routed, by outcome",
		},
		[]string{"outcome"},
	)

	MailboxAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoicextract_mailbox_attempts_total",
			Help: "Mailbox connection attempts, by result",
		},
		[]string{"result"}, // result: success, authentication, timeout, not_connected, other
	)

	ArtifactUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoicextract_uploads_total",
			Help: "Artifact uploads to object storage, by result",
		},
		[]string{"result"},
	)

	InvoiceSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoicextract_submissions_total",
			Help: "Invoice submissions to the backend, by result",
		},
		[]string{"result"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invoicextract_run_duration_seconds",
			Help:    "Duration of one full processing run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
		},
	)
)

func RecordMessage(outcome string) {
	MessagesProcessed.WithLabelValues(outcome).Inc()
}

func RecordMailboxAttempt(result string) {
	MailboxAttempts.WithLabelValues(result).Inc()
}

func RecordUpload(ok bool) {
	ArtifactUploads.WithLabelValues(resultLabel(ok)).Inc()
}

func RecordSubmission(ok bool) {
	InvoiceSubmissions.WithLabelValues(resultLabel(ok)).Inc()
}

func RecordRunDuration(d time.Duration) {
	RunDuration.Observe(d.Seconds())
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
