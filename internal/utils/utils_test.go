package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAttachment(t *testing.T) {
	cases := []struct {
		contentType string
		fileName    string
		want        AttachmentKind
	}{
		{"application/zip", "invoice.zip", AttachmentArchive},
		{"application/x-zip-compressed", "invoice.zip", AttachmentArchive},
		{"application/octet-stream", "INVOICE.ZIP", AttachmentArchive},
		{"application/octet-stream", "invoice.bin", AttachmentIgnored},
		{"application/pdf; name=\"a.pdf\"", "a.pdf", AttachmentDocument},
		{"Application/XML", "a.xml", AttachmentDocument},
		{"text/xml", "a.xml", AttachmentIgnored},
		{"image/png", "logo.png", AttachmentIgnored},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyAttachment(tc.contentType, tc.fileName), "%s %s", tc.contentType, tc.fileName)
	}
}

func TestContentTypeForFile(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeForFile("a.PDF"))
	assert.Equal(t, "application/xml", ContentTypeForFile("dir/a.xml"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFile("noext"))
}

func TestGenerateBatchName(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	a, err := GenerateBatchName(now)
	require.NoError(t, err)
	b, err := GenerateBatchName(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^20240506-070809123456-[a-z0-9]{6}$`), a)
	assert.NotEqual(t, a, b)
}
