package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// File types declared to the parse-trigger endpoint.
const (
	FileTypePDF      = "pdf"
	FileTypeHTML     = "html"
	FileTypeMarkdown = "markdown"
	FileTypeText     = "text"
)

// DetectFileType maps a path to the file type declared to the parsing
// service. PDFs are additionally opened and checked locally so an
// unreadable file is rejected before the upload call rather than left
// sitting unparsed on the server.
func DetectFileType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if err := validatePDF(path); err != nil {
			return "", err
		}
		return FileTypePDF, nil
	case ".html", ".htm":
		return FileTypeHTML, nil
	case ".md", ".markdown":
		return FileTypeMarkdown, nil
	default:
		return FileTypeText, nil
	}
}

func validatePDF(path string) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("%s is not a readable PDF: %w", path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return fmt.Errorf("%s has no pages", path)
	}
	return nil
}
