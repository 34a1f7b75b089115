package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// Document conversions go through a text bridge: the source's text content
// is extracted and re-assembled in the target format. Layout and embedded
// media do not survive; that is an accepted limitation of the adapters.

const (
	docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func pdfToDocx(ctx context.Context, in Payload) (Payload, error) {
	text, err := extractPDFText(in.Data)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	data, err := buildDocx(text)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Filename: replaceExt(in.Filename, ".docx"), MIME: docxMIME, Data: data}, nil
}

func pdfToXLSX(ctx context.Context, in Payload) (Payload, error) {
	text, err := extractPDFText(in.Data)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	row := 1
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return Payload{}, fmt.Errorf("failed to write cell: %w", err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Payload{}, fmt.Errorf("failed to assemble workbook: %w", err)
	}
	return Payload{Filename: replaceExt(in.Filename, ".xlsx"), MIME: xlsxMIME, Data: buf.Bytes()}, nil
}

func docxToPDF(ctx context.Context, in Payload) (Payload, error) {
	text, err := extractDocxText(in.Data)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	data, err := textToPDF(text)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Filename: replaceExt(in.Filename, ".pdf"), MIME: pdfMIME, Data: data}, nil
}

func xlsxToPDF(ctx context.Context, in Payload) (Payload, error) {
	f, err := excelize.OpenReader(bytes.NewReader(in.Data))
	if err != nil {
		return Payload{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		lines = append(lines, sheet)
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		lines = append(lines, "")
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	data, err := textToPDF(strings.Join(lines, "\n"))
	if err != nil {
		return Payload{}, err
	}
	return Payload{Filename: replaceExt(in.Filename, ".pdf"), MIME: pdfMIME, Data: data}, nil
}

func pptxToPDF(ctx context.Context, in Payload) (Payload, error) {
	text, err := extractPptxText(in.Data)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	data, err := textToPDF(text)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Filename: replaceExt(in.Filename, ".pdf"), MIME: pdfMIME, Data: data}, nil
}

func epubToPDF(ctx context.Context, in Payload) (Payload, error) {
	text, err := extractEpubText(in.Data)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	data, err := textToPDF(text)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Filename: replaceExt(in.Filename, ".pdf"), MIME: pdfMIME, Data: data}, nil
}

func textToPDF(text string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 11)
	for _, line := range strings.Split(text, "\n") {
		doc.MultiCell(0, 5, line, "", "L", false)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// extractDocxText reads the main document part of a DOCX package and
// collects its run text, one line per paragraph.
func extractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document package: %w", err)
	}
	for _, zf := range zr.File {
		if zf.Name != "word/document.xml" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document part: %w", err)
		}
		defer rc.Close()
		return collectRunText(rc)
	}
	return "", fmt.Errorf("not a Word document: missing word/document.xml")
}

func collectRunText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document part: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// extractPptxText reads every slide part of a PPTX package in deck order
// and collects its run text. Slide XML uses the same t/p element names as
// WordprocessingML, so the run collector is shared.
func extractPptxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open presentation package: %w", err)
	}
	var slides []*zip.File
	for _, zf := range zr.File {
		if strings.HasPrefix(zf.Name, "ppt/slides/slide") && strings.HasSuffix(zf.Name, ".xml") {
			slides = append(slides, zf)
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("not a PowerPoint presentation: no slides found")
	}
	// Shorter names sort first so slide2 precedes slide10.
	sort.Slice(slides, func(i, j int) bool {
		a, b := slides[i].Name, slides[j].Name
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	var sb strings.Builder
	for _, zf := range slides {
		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open slide %q: %w", zf.Name, err)
		}
		text, err := collectRunText(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// extractEpubText reads the XHTML content documents of an EPUB package and
// strips them to plain text. Archive order stands in for spine order; both
// follow reading order in books produced by mainstream tooling.
func extractEpubText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open book package: %w", err)
	}
	var sb strings.Builder
	found := false
	for _, zf := range zr.File {
		name := strings.ToLower(zf.Name)
		if !strings.HasSuffix(name, ".xhtml") && !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".htm") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open content document %q: %w", zf.Name, err)
		}
		text, err := collectMarkupText(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
		found = true
	}
	if !found {
		return "", fmt.Errorf("not an EPUB book: no content documents found")
	}
	return sb.String(), nil
}

// collectMarkupText extracts the character data of an XHTML document,
// skipping script and style bodies and breaking lines at block elements.
func collectMarkupText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	var sb strings.Builder
	skip := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse content document: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "script", "style":
				skip++
			}
		case xml.EndElement:
			switch strings.ToLower(t.Name.Local) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li", "br", "title", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if skip == 0 {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// buildDocx assembles a minimal WordprocessingML package with one paragraph
// per input line.
func buildDocx(text string) ([]byte, error) {
	var body strings.Builder
	for _, line := range strings.Split(text, "\n") {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&body, []byte(line)); err != nil {
			return nil, fmt.Errorf("failed to escape text: %w", err)
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create package part %q: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("failed to write package part %q: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize package: %w", err)
	}
	return buf.Bytes(), nil
}
