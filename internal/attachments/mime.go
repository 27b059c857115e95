package attachments

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var allowedTypes = map[string]bool{
	"application/pdf":          true,
	"application/msword":       true,
	"application/vnd.ms-excel": true,
	mimeDocx:                   true,
	mimeXlsx:                   true,
	"image/jpeg":               true,
	"image/png":                true,
}

// DetectContentType sniffs head and falls back to the extension for office
// formats whose head only shows a zip or OLE container.
func DetectContentType(filename string, head []byte) string {
	m := mimetype.Detect(head)
	ct := m.String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case m.Is("application/zip"):
		switch ext {
		case ".docx":
			return mimeDocx
		case ".xlsx":
			return mimeXlsx
		}
	case m.Is("application/x-ole-storage"), m.Is("application/octet-stream"):
		switch ext {
		case ".doc":
			return "application/msword"
		case ".xls":
			return "application/vnd.ms-excel"
		}
	}
	return ct
}

// Allowed reports whether uploads of this content type are accepted.
func Allowed(contentType string) bool {
	return allowedTypes[contentType]
}
