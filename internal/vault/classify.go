package vault

import (
	"path/filepath"
	"strings"
)

// Category is the handling class of a vault file.
type Category int

// Categories.
const (
	Unsupported Category = iota
	Markdown
	Image
)

func (c Category) String() string {
	switch c {
	case Markdown:
		return "markdown"
	case Image:
		return "image"
	default:
		return "unsupported"
	}
}

const (
	mimeMarkdown    = "text/markdown"
	mimeOctetStream = "application/octet-stream"
)

// mimeTypes maps lower-cased extensions to MIME types. The table is the
// only source of truth for classification; the host's mime database is
// not consulted.
var mimeTypes = map[string]string{
	".md":       mimeMarkdown,
	".markdown": mimeMarkdown,

	".apng": "image/apng",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".heic": "image/heic",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",

	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".json": "application/json",
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".zip":  "application/zip",
}

// Classification is the result of Classify.
type Classification struct {
	Category Category
	MIME     string
}

// Classify maps a path to its category using only its extension.
func Classify(path string) Classification {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeTypes[ext]
	if !ok {
		mime = mimeOctetStream
	}

	switch {
	case mime == mimeMarkdown:
		return Classification{Category: Markdown, MIME: mimeMarkdown}
	case strings.HasPrefix(mime, "image/"):
		return Classification{Category: Image, MIME: mime}
	default:
		return Classification{Category: Unsupported, MIME: mime}
	}
}

// isNote reports whether name is a Markdown note eligible for the tree.
// Unlike Classify it is case-sensitive.
func isNote(name string) bool {
	return strings.HasSuffix(name, ".md")
}
