package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

const pdfMIME = "application/pdf"

// imageToPDF wraps a single raster image into a one-page PDF. The engine
// is file-based, so the input is staged in a scratch directory first.
func (d *Dispatcher) imageToPDF(ctx context.Context, in Payload) (Payload, error) {
	dir, err := os.MkdirTemp("", "convert-*")
	if err != nil {
		return Payload{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "input"+sourceExt(in.Filename))
	outPath := filepath.Join(dir, "output.pdf")
	if err := os.WriteFile(inPath, in.Data, 0o600); err != nil {
		return Payload{}, fmt.Errorf("failed to stage input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	if err := pdfapi.ImportImagesFile([]string{inPath}, outPath, nil, nil); err != nil {
		return Payload{}, fmt.Errorf("failed to build PDF: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read output: %w", err)
	}
	return Payload{
		Filename: replaceExt(in.Filename, ".pdf"),
		MIME:     pdfMIME,
		Data:     data,
	}, nil
}

// extractPDFText pulls the plain text out of a PDF, page by page. Layout,
// images and styling are lost; this feeds the text-bridge document
// conversions.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}
	return buf.String(), nil
}

func sourceExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return ext
}
