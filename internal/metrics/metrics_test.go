package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpload(t *testing.T) {
	before := testutil.ToFloat64(ArtifactUploads.WithLabelValues("failed"))
	RecordUpload(false)
	assert.Equal(t, before+1, testutil.ToFloat64(ArtifactUploads.WithLabelValues("failed")))
}

func TestRecordMessage(t *testing.T) {
	before := testutil.ToFloat64(MessagesProcessed.WithLabelValues("no_attachment"))
	RecordMessage("no_attachment")
	RecordMessage("no_attachment")
	assert.Equal(t, before+2, testutil.ToFloat64(MessagesProcessed.WithLabelValues("no_attachment")))
}
