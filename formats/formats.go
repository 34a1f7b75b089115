package formats

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Category string

const (
	CategoryDocument Category = "document"
	CategoryImage    Category = "image"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryText     Category = "text"
)

// Format describes one file format. Instances are static and immutable.
type Format struct {
	ID        string
	Extension string
	MIMEType  string
	Label     string
	Category  Category
}

var descriptors = []Format{
	// Documents
	{ID: "pdf", Extension: ".pdf", MIMEType: "application/pdf", Label: "PDF", Category: CategoryDocument},
	{ID: "docx", Extension: ".docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Label: "Word Document", Category: CategoryDocument},
	{ID: "xlsx", Extension: ".xlsx", MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Label: "Excel Spreadsheet", Category: CategoryDocument},
	{ID: "pptx", Extension: ".pptx", MIMEType: "application/vnd.openxmlformats-officedocument.presentationml.presentation", Label: "PowerPoint Presentation", Category: CategoryDocument},
	{ID: "epub", Extension: ".epub", MIMEType: "application/epub+zip", Label: "EPUB eBook", Category: CategoryDocument},
	// Images
	{ID: "jpg", Extension: ".jpg", MIMEType: "image/jpeg", Label: "JPEG", Category: CategoryImage},
	{ID: "png", Extension: ".png", MIMEType: "image/png", Label: "PNG", Category: CategoryImage},
	{ID: "webp", Extension: ".webp", MIMEType: "image/webp", Label: "WebP", Category: CategoryImage},
	{ID: "bmp", Extension: ".bmp", MIMEType: "image/bmp", Label: "Bitmap", Category: CategoryImage},
	// Audio
	{ID: "mp3", Extension: ".mp3", MIMEType: "audio/mpeg", Label: "MP3", Category: CategoryAudio},
	{ID: "wav", Extension: ".wav", MIMEType: "audio/wav", Label: "WAV", Category: CategoryAudio},
	{ID: "aac", Extension: ".aac", MIMEType: "audio/aac", Label: "AAC", Category: CategoryAudio},
	{ID: "flac", Extension: ".flac", MIMEType: "audio/flac", Label: "FLAC", Category: CategoryAudio},
	{ID: "ogg", Extension: ".ogg", MIMEType: "audio/ogg", Label: "OGG", Category: CategoryAudio},
	// Video
	{ID: "mp4", Extension: ".mp4", MIMEType: "video/mp4", Label: "MP4", Category: CategoryVideo},
	{ID: "avi", Extension: ".avi", MIMEType: "video/x-msvideo", Label: "AVI", Category: CategoryVideo},
	{ID: "mkv", Extension: ".mkv", MIMEType: "video/x-matroska", Label: "Matroska", Category: CategoryVideo},
	{ID: "mov", Extension: ".mov", MIMEType: "video/quicktime", Label: "QuickTime", Category: CategoryVideo},
	{ID: "webm", Extension: ".webm", MIMEType: "video/webm", Label: "WebM", Category: CategoryVideo},
	// Text
	{ID: "json", Extension: ".json", MIMEType: "application/json", Label: "JSON", Category: CategoryText},
	{ID: "xml", Extension: ".xml", MIMEType: "application/xml", Label: "XML", Category: CategoryText},
	{ID: "yaml", Extension: ".yaml", MIMEType: "application/x-yaml", Label: "YAML", Category: CategoryText},
}

// extension aliases that map onto a registered format.
var extensionAliases = map[string]string{
	".jpeg": "jpg",
	".yml":  "yaml",
}

// FormatFromExtension resolves a filename to its format descriptor by
// extension.
func FormatFromExtension(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return Format{}, fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, filename)
	}
	if id, ok := extensionAliases[ext]; ok {
		ext = "." + id
	}
	for _, f := range descriptors {
		if f.Extension == ext {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: extension %q", ErrUnknownFormat, ext)
}

// FormatFromMIME resolves a MIME type to its format descriptor.
func FormatFromMIME(mimeType string) (Format, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	for _, f := range descriptors {
		if f.MIMEType == mt {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: mime type %q", ErrUnknownFormat, mimeType)
}

// FormatFileSize renders a byte count in human-readable form.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return strings.TrimSuffix(fmt.Sprintf("%.2f", size), ".00") + " " + units[i]
}
