package formats

import (
	"errors"
	"fmt"
)

var ErrUnknownFormat = errors.New("unknown format")

// Quality annotates the fidelity direction of an audio conversion. It is
// informational metadata only; conversions proceed regardless of it.
type Quality string

const (
	QualityMaintained    Quality = "maintained"
	QualityLossless      Quality = "lossless"
	QualityReduced       Quality = "reduced"
	QualityNoImprovement Quality = "no-improvement"
)

// Rule marks one ordered (source, target) pair as convertible. Rules are
// directional: a rule for (a, b) says nothing about (b, a).
type Rule struct {
	Source  string
	Target  string
	Quality Quality // audio rules only
}

// pptx and epub convert to PDF only; nothing converts into them.
var documentRules = []Rule{
	{Source: "pdf", Target: "docx"},
	{Source: "pdf", Target: "xlsx"},
	{Source: "docx", Target: "pdf"},
	{Source: "xlsx", Target: "pdf"},
	{Source: "pptx", Target: "pdf"},
	{Source: "epub", Target: "pdf"},
}

var imageRules = []Rule{
	{Source: "jpg", Target: "png"},
	{Source: "jpg", Target: "webp"},
	{Source: "jpg", Target: "pdf"},
	{Source: "jpg", Target: "bmp"},
	{Source: "png", Target: "jpg"},
	{Source: "png", Target: "webp"},
	{Source: "png", Target: "pdf"},
	{Source: "png", Target: "bmp"},
	{Source: "webp", Target: "jpg"},
	{Source: "webp", Target: "png"},
	{Source: "webp", Target: "bmp"},
	{Source: "bmp", Target: "jpg"},
	{Source: "bmp", Target: "png"},
	{Source: "bmp", Target: "webp"},
}

// Lossy formats are mp3, aac and ogg; wav and flac are lossless. Every
// direction is written out explicitly rather than derived so the table can
// be audited against the quality labels.
var audioRules = []Rule{
	{Source: "mp3", Target: "wav", Quality: QualityNoImprovement},
	{Source: "mp3", Target: "aac", Quality: QualityMaintained},
	{Source: "mp3", Target: "flac", Quality: QualityNoImprovement},
	{Source: "mp3", Target: "ogg", Quality: QualityMaintained},
	{Source: "wav", Target: "mp3", Quality: QualityReduced},
	{Source: "wav", Target: "aac", Quality: QualityReduced},
	{Source: "wav", Target: "flac", Quality: QualityLossless},
	{Source: "wav", Target: "ogg", Quality: QualityReduced},
	{Source: "aac", Target: "mp3", Quality: QualityMaintained},
	{Source: "aac", Target: "wav", Quality: QualityNoImprovement},
	{Source: "aac", Target: "flac", Quality: QualityNoImprovement},
	{Source: "aac", Target: "ogg", Quality: QualityMaintained},
	{Source: "flac", Target: "mp3", Quality: QualityReduced},
	{Source: "flac", Target: "wav", Quality: QualityLossless},
	{Source: "flac", Target: "aac", Quality: QualityReduced},
	{Source: "flac", Target: "ogg", Quality: QualityReduced},
	{Source: "ogg", Target: "mp3", Quality: QualityMaintained},
	{Source: "ogg", Target: "wav", Quality: QualityNoImprovement},
	{Source: "ogg", Target: "aac", Quality: QualityMaintained},
	{Source: "ogg", Target: "flac", Quality: QualityNoImprovement},
}

var videoRules = []Rule{
	{Source: "mp4", Target: "avi"},
	{Source: "mp4", Target: "mkv"},
	{Source: "mp4", Target: "mov"},
	{Source: "mp4", Target: "webm"},
	{Source: "mp4", Target: "mp3"},
	{Source: "avi", Target: "mp4"},
	{Source: "avi", Target: "mkv"},
	{Source: "avi", Target: "mov"},
	{Source: "avi", Target: "webm"},
	{Source: "mkv", Target: "mp4"},
	{Source: "mkv", Target: "avi"},
	{Source: "mkv", Target: "mov"},
	{Source: "mkv", Target: "webm"},
	{Source: "mov", Target: "mp4"},
	{Source: "mov", Target: "avi"},
	{Source: "mov", Target: "mkv"},
	{Source: "mov", Target: "webm"},
	{Source: "webm", Target: "mp4"},
	{Source: "webm", Target: "avi"},
	{Source: "webm", Target: "mkv"},
	{Source: "webm", Target: "mov"},
}

var textRules = []Rule{
	{Source: "json", Target: "xml"},
	{Source: "json", Target: "yaml"},
	{Source: "xml", Target: "json"},
	{Source: "xml", Target: "yaml"},
	{Source: "yaml", Target: "json"},
	{Source: "yaml", Target: "xml"},
}

// Registry holds the static table of formats and conversion rules.
type Registry struct {
	byID  map[string]Format
	rules map[Category][]Rule
}

func NewRegistry() *Registry {
	byID := make(map[string]Format, len(descriptors))
	for _, f := range descriptors {
		byID[f.ID] = f
	}
	return &Registry{
		byID: byID,
		rules: map[Category][]Rule{
			CategoryDocument: documentRules,
			CategoryImage:    imageRules,
			CategoryAudio:    audioRules,
			CategoryVideo:    videoRules,
			CategoryText:     textRules,
		},
	}
}

// ListTargets returns the valid target descriptors for a source format, in
// table order. The result never includes the source itself and is empty
// (not an error) when the source has no targets in the category.
func (r *Registry) ListTargets(category Category, source string) []Format {
	var targets []Format
	for _, rule := range r.rules[category] {
		if rule.Source != source || rule.Target == source {
			continue
		}
		if f, ok := r.byID[rule.Target]; ok {
			targets = append(targets, f)
		}
	}
	return targets
}

// IsSupported reports whether the (source, target) pair is convertible
// within the category.
func (r *Registry) IsSupported(category Category, source, target string) bool {
	for _, rule := range r.rules[category] {
		if rule.Source == source && rule.Target == target && rule.Target != rule.Source {
			return true
		}
	}
	return false
}

// Describe returns the descriptor for a format ID.
func (r *Registry) Describe(formatID string) (Format, error) {
	f, ok := r.byID[formatID]
	if !ok {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, formatID)
	}
	return f, nil
}

// QualityFor returns the quality annotation for an audio conversion pair.
// The second return is false when the pair is not in the audio table.
func (r *Registry) QualityFor(source, target string) (Quality, bool) {
	for _, rule := range r.rules[CategoryAudio] {
		if rule.Source == source && rule.Target == target {
			return rule.Quality, true
		}
	}
	return "", false
}

// Rules returns the rule table for a category, in definition order.
func (r *Registry) Rules(category Category) []Rule {
	return r.rules[category]
}

// Categories returns every category that has at least one rule.
func (r *Registry) Categories() []Category {
	return []Category{CategoryDocument, CategoryImage, CategoryAudio, CategoryVideo, CategoryText}
}
