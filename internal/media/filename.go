package media

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// storageName builds "<unix-millis>-<8 random hex chars><ext>". The original
// filename never contributes to the result.
func storageName(now time.Time, ext string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.New().String()[:8], ext)
}

// extensionFor keeps the upload's own extension when it has one and otherwise
// derives it from the content type.
func extensionFor(f File) string {
	if ext := f.Ext(); ext != "" {
		return ext
	}
	switch strings.ToLower(f.ContentType) {
	case ContentTypeJPEG:
		return ".jpg"
	case ContentTypeHEIC:
		return ".heic"
	case ContentTypeHEIF:
		return ".heif"
	}
	if exts, err := mime.ExtensionsByType(f.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
