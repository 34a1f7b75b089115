package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fileconverter/formats"
)

var ErrUnsupportedConversion = errors.New("unsupported conversion")

// Payload carries a file through a conversion: raw bytes plus naming
// metadata for the output.
type Payload struct {
	Filename string
	MIME     string
	Data     []byte
}

// ConvertFunc performs one conversion. Implementations are stateless and
// safe to call concurrently.
type ConvertFunc func(ctx context.Context, in Payload) (Payload, error)

// Handle is a resolved converter for one (source, target) pair.
type Handle struct {
	Source string
	Target string
	Fn     ConvertFunc
}

type pairKey struct {
	category formats.Category
	source   string
	target   string
}

type Options struct {
	FFmpegPath  string
	TempDir     string
	JPEGQuality int
}

// Dispatcher routes (category, source, target) triples to converter
// implementations. The registry is authoritative: a pair the registry
// rejects is unsupported even if a handler happens to exist for it.
type Dispatcher struct {
	registry *formats.Registry
	handlers map[pairKey]ConvertFunc
	logger   *zap.Logger
}

// NewDispatcher builds the dispatch table and verifies that every pair the
// registry marks supported has a handler. A missing handler is a
// configuration error surfaced at startup, not a runtime failure.
func NewDispatcher(registry *formats.Registry, logger *zap.Logger, opts Options) (*Dispatcher, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}

	d := &Dispatcher{
		registry: registry,
		handlers: make(map[pairKey]ConvertFunc),
		logger:   logger,
	}
	media := newTranscoder(opts.FFmpegPath, opts.TempDir, logger)

	for _, rule := range registry.Rules(formats.CategoryImage) {
		key := pairKey{formats.CategoryImage, rule.Source, rule.Target}
		switch rule.Target {
		case "pdf":
			d.handlers[key] = d.imageToPDF
		case "webp":
			// No WebP encoder in the raster toolkit; route through the
			// media engine.
			d.handlers[key] = media.convert(rule.Source, rule.Target)
		default:
			d.handlers[key] = d.encodeImage(rule.Target, opts.JPEGQuality)
		}
	}

	for _, rule := range registry.Rules(formats.CategoryDocument) {
		key := pairKey{formats.CategoryDocument, rule.Source, rule.Target}
		switch {
		case rule.Source == "pdf" && rule.Target == "docx":
			d.handlers[key] = pdfToDocx
		case rule.Source == "pdf" && rule.Target == "xlsx":
			d.handlers[key] = pdfToXLSX
		case rule.Target == "pdf" && rule.Source == "docx":
			d.handlers[key] = docxToPDF
		case rule.Target == "pdf" && rule.Source == "xlsx":
			d.handlers[key] = xlsxToPDF
		case rule.Target == "pdf" && rule.Source == "pptx":
			d.handlers[key] = pptxToPDF
		case rule.Target == "pdf" && rule.Source == "epub":
			d.handlers[key] = epubToPDF
		}
	}

	for _, rule := range registry.Rules(formats.CategoryAudio) {
		d.handlers[pairKey{formats.CategoryAudio, rule.Source, rule.Target}] = media.convert(rule.Source, rule.Target)
	}
	for _, rule := range registry.Rules(formats.CategoryVideo) {
		d.handlers[pairKey{formats.CategoryVideo, rule.Source, rule.Target}] = media.convert(rule.Source, rule.Target)
	}
	for _, rule := range registry.Rules(formats.CategoryText) {
		d.handlers[pairKey{formats.CategoryText, rule.Source, rule.Target}] = textConvert(rule.Source, rule.Target)
	}

	for _, category := range registry.Categories() {
		for _, rule := range registry.Rules(category) {
			if _, ok := d.handlers[pairKey{category, rule.Source, rule.Target}]; !ok {
				return nil, fmt.Errorf("no converter registered for %s %s->%s", category, rule.Source, rule.Target)
			}
		}
	}
	return d, nil
}

// Resolve looks up the converter for a pair, failing with
// ErrUnsupportedConversion when the registry does not allow it.
func (d *Dispatcher) Resolve(category formats.Category, source, target string) (Handle, error) {
	if !d.registry.IsSupported(category, source, target) {
		return Handle{}, fmt.Errorf("%w: %s %s->%s", ErrUnsupportedConversion, category, source, target)
	}
	fn, ok := d.handlers[pairKey{category, source, target}]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s %s->%s", ErrUnsupportedConversion, category, source, target)
	}
	return Handle{Source: source, Target: target, Fn: fn}, nil
}

// Invoke runs a resolved converter. It blocks until the adapter completes
// or the context is cancelled.
func (d *Dispatcher) Invoke(ctx context.Context, h Handle, in Payload) (Payload, error) {
	if h.Fn == nil {
		return Payload{}, fmt.Errorf("%w: empty handle", ErrUnsupportedConversion)
	}
	out, err := h.Fn(ctx, in)
	if err != nil {
		return Payload{}, fmt.Errorf("convert %s to %s: %w", h.Source, h.Target, err)
	}
	if d.logger != nil {
		d.logger.Info("Conversion completed",
			zap.String("source", h.Source),
			zap.String("target", h.Target),
			zap.Int("output_bytes", len(out.Data)),
		)
	}
	return out, nil
}

func replaceExt(filename, ext string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		filename = filename[:i]
	}
	return filename + ext
}
