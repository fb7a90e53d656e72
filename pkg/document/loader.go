// Package document supplies the raw text of the reference material that
// seeds the cached inference context.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader reads a reference document from disk and returns its plain text.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// ExtractText returns the text content of the document at path. PDF files
// are parsed page by page; anything else is read as-is.
func (l *Loader) ExtractText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("reference document not found: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPdfText(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read reference document: %w", err)
	}
	return string(raw), nil
}

func extractPdfText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
