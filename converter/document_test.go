package converter

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

// zipBytes assembles an in-memory zip archive from named parts.
func zipBytes(t *testing.T, names []string, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create part %q: %v", name, err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			t.Fatalf("Failed to write part %q: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finalize archive: %v", err)
	}
	return buf.Bytes()
}

func TestBuildDocxRoundTrip(t *testing.T) {
	data, err := buildDocx("first line\nsecond <line> & more")
	if err != nil {
		t.Fatalf("buildDocx failed: %v", err)
	}

	text, err := extractDocxText(data)
	if err != nil {
		t.Fatalf("extractDocxText failed: %v", err)
	}
	if !strings.Contains(text, "first line") {
		t.Errorf("Extracted text missing first paragraph:\n%s", text)
	}
	if !strings.Contains(text, "second <line> & more") {
		t.Errorf("Markup characters not preserved through escaping:\n%s", text)
	}
}

func TestExtractPptxText(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
			` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
			`<a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:sld>`
	}
	data := zipBytes(t,
		[]string{"ppt/slides/slide2.xml", "ppt/slides/slide1.xml"},
		map[string]string{
			"ppt/slides/slide1.xml": slide("Opening slide"),
			"ppt/slides/slide2.xml": slide("Closing slide"),
		})

	text, err := extractPptxText(data)
	if err != nil {
		t.Fatalf("extractPptxText failed: %v", err)
	}
	opening := strings.Index(text, "Opening slide")
	closing := strings.Index(text, "Closing slide")
	if opening < 0 || closing < 0 {
		t.Fatalf("Missing slide text:\n%s", text)
	}
	if opening > closing {
		t.Errorf("Slides out of deck order:\n%s", text)
	}
}

func TestExtractPptxTextRejectsNonPptx(t *testing.T) {
	data := zipBytes(t, []string{"word/document.xml"}, map[string]string{
		"word/document.xml": "<w:document/>",
	})
	if _, err := extractPptxText(data); err == nil {
		t.Fatal("Expected error for archive without slides, got nil")
	}
}

func TestExtractEpubText(t *testing.T) {
	data := zipBytes(t,
		[]string{"mimetype", "OEBPS/chapter1.xhtml"},
		map[string]string{
			"mimetype": "application/epub+zip",
			"OEBPS/chapter1.xhtml": `<html xmlns="http://www.w3.org/1999/xhtml">` +
				`<head><title>Chapter One</title><style>p{color:red}</style></head>` +
				`<body><p>Once upon a time.</p><p>The end.</p></body></html>`,
		})

	text, err := extractEpubText(data)
	if err != nil {
		t.Fatalf("extractEpubText failed: %v", err)
	}
	if !strings.Contains(text, "Once upon a time.") || !strings.Contains(text, "The end.") {
		t.Errorf("Missing chapter text:\n%s", text)
	}
	if strings.Contains(text, "color:red") {
		t.Errorf("Style body leaked into text:\n%s", text)
	}
}

func TestExtractEpubTextRejectsNonEpub(t *testing.T) {
	data := zipBytes(t, []string{"mimetype"}, map[string]string{
		"mimetype": "application/epub+zip",
	})
	if _, err := extractEpubText(data); err == nil {
		t.Fatal("Expected error for book without content documents, got nil")
	}
}

func TestExtractDocxTextRejectsNonDocx(t *testing.T) {
	if _, err := extractDocxText([]byte("plain bytes, not a zip")); err == nil {
		t.Fatal("Expected error for non-zip input, got nil")
	}
}

func TestTextToPDF(t *testing.T) {
	data, err := textToPDF("hello\nworld")
	if err != nil {
		t.Fatalf("textToPDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("Output does not look like a PDF (starts with %q)", data[:min(8, len(data))])
	}
}
