package utils

import (
	"path/filepath"
	"strings"
)

type AttachmentKind int

const (
	AttachmentIgnored AttachmentKind = iota
	AttachmentArchive
	AttachmentDocument
)

// ClassifyAttachment decides how an attachment is materialized from its
// declared MIME type and file name.
func ClassifyAttachment(contentType, fileName string) AttachmentKind {
	contentType = normalizeContentType(contentType)

	switch {
	case contentType == "application/zip" || contentType == "application/x-zip-compressed":
		return AttachmentArchive
	case contentType == "application/octet-stream" && HasExtension(fileName, ".zip"):
		return AttachmentArchive
	case contentType == "application/pdf" || contentType == "application/xml":
		return AttachmentDocument
	default:
		return AttachmentIgnored
	}
}

// ContentTypeForFile maps the extensions kept in a batch to upload content types.
func ContentTypeForFile(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".xml":
		return "application/xml"
	case ".zip":
		return "application/zip"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// HasExtension compares the file extension case-insensitively.
func HasExtension(fileName, ext string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ext)
}

func normalizeContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}
