package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"fileconverter/formats"
)

// File is a candidate input prior to any Job existing for it.
type File struct {
	Name string
	Size int64
	MIME string
	Data []byte
}

// Constraints bound a batch submission. AcceptedTypes is a comma-separated
// list of extension patterns (".png") and MIME patterns ("image/png",
// "image/*"). MaxSizeByCategory overrides MaxFileSize for files whose
// format falls in that category; MaxFileSize is the fallback limit.
type Constraints struct {
	AcceptedTypes     string
	MaxFileSize       int64
	MaxSizeByCategory map[formats.Category]int64
	MaxFileCount      int
}

// Accepted is a file that passed validation, ready to become a Job. The
// caller owns the preview and must release it exactly once when the file
// leaves its working set.
type Accepted struct {
	File    File
	Format  formats.Format
	Preview *Preview
}

type Rejected struct {
	Filename string
	Reason   string
}

// Result reports the outcome of one batch submission. Rejections are data,
// not errors: partial rejection is normal flow.
type Result struct {
	Accepted []Accepted
	Rejected []Rejected
}

// Validate checks a batch against the constraints. The count check runs
// first: an oversized batch is rejected whole, with one reason per file and
// no partial acceptance. Otherwise each file is wholly accepted or wholly
// rejected with exactly one reason.
func Validate(files []File, c Constraints) Result {
	var result Result

	if c.MaxFileCount > 0 && len(files) > c.MaxFileCount {
		reason := fmt.Sprintf("%s: maximum %d files allowed", ErrCountExceeded.Error(), c.MaxFileCount)
		for _, f := range files {
			result.Rejected = append(result.Rejected, Rejected{Filename: f.Name, Reason: reason})
		}
		return result
	}

	patterns := splitPatterns(c.AcceptedTypes)
	for _, f := range files {
		if len(patterns) > 0 && !matchesAccepted(f.Name, f.MIME, patterns) {
			result.Rejected = append(result.Rejected, Rejected{Filename: f.Name, Reason: ErrInvalidFileType.Error()})
			continue
		}
		format, err := formats.FormatFromExtension(f.Name)
		if err != nil {
			result.Rejected = append(result.Rejected, Rejected{Filename: f.Name, Reason: ErrInvalidFileType.Error()})
			continue
		}
		if err := checkSize(f, format.Category, c); err != nil {
			result.Rejected = append(result.Rejected, Rejected{Filename: f.Name, Reason: err.Error()})
			continue
		}
		if err := checkContent(f, format); err != nil {
			result.Rejected = append(result.Rejected, Rejected{Filename: f.Name, Reason: err.Error()})
			continue
		}
		result.Accepted = append(result.Accepted, Accepted{
			File:    f,
			Format:  format,
			Preview: newPreview(f),
		})
	}
	return result
}

// checkSize enforces the limit for the file's category, falling back to
// the batch-wide limit when no category limit is set.
func checkSize(f File, category formats.Category, c Constraints) error {
	limit := c.MaxFileSize
	if byCategory, ok := c.MaxSizeByCategory[category]; ok && byCategory > 0 {
		limit = byCategory
	}
	if limit > 0 && f.Size > limit {
		return fmt.Errorf("%w: %s over %s", ErrFileTooLarge, formats.FormatFileSize(f.Size), formats.FormatFileSize(limit))
	}
	return nil
}

// checkContent sniffs the file bytes and rejects inputs whose content
// contradicts their extension. Files submitted without bytes (metadata-only
// validation) are left to fail at conversion time instead.
func checkContent(f File, declared formats.Format) error {
	if len(f.Data) == 0 {
		return nil
	}
	detected := mimetype.Detect(f.Data)
	if detected.Is("application/octet-stream") || detected.Is("text/plain") {
		// Sniffing could not narrow it down; text formats in particular
		// all detect as plain text.
		return nil
	}
	if detected.Is(declared.MIMEType) {
		return nil
	}
	// Same top-level type is close enough: audio/video containers and
	// image variants are frequently detected under a sibling MIME type.
	if topLevel(detected.String()) == topLevel(declared.MIMEType) {
		return nil
	}
	return fmt.Errorf("%w: %s content in a %s file", ErrExtensionMismatch, detected.String(), declared.Extension)
}

func topLevel(mime string) string {
	if i := strings.Index(mime, "/"); i >= 0 {
		return mime[:i]
	}
	return mime
}

func splitPatterns(acceptedTypes string) []string {
	var patterns []string
	for _, p := range strings.Split(acceptedTypes, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" && p != "*" && p != "*/*" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// matchesAccepted reports whether the filename or declared MIME type
// satisfies at least one accepted-type pattern. Patterns starting with a
// dot match the extension; others match the MIME type, with "image/*"
// style wildcards accepting any subtype.
func matchesAccepted(name, mime string, patterns []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	mime = strings.ToLower(mime)
	for _, p := range patterns {
		if strings.HasPrefix(p, ".") {
			if p == ext {
				return true
			}
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			if strings.HasPrefix(mime, prefix+"/") {
				return true
			}
			continue
		}
		if p == mime {
			return true
		}
	}
	return false
}
