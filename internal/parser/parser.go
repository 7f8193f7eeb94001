package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/docredact/internal/document"
)

// ErrParse marks content that could not be extracted from an upload.
var ErrParse = errors.New("parse failed")

var errInvalidUTF8 = errors.New("file is not valid UTF-8 text")

// Parser converts raw document bytes into extracted content.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Content, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	return ForFileWith(filename, Options{})
}

// ForFileWith is ForFile with explicit options.
func ForFileWith(filename string, opts Options) (Parser, error) {
	f, ok := document.FormatForFile(filename)
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", filename)
	}
	return ForFormat(f, opts), nil
}

// ForFormat returns the parser for a known format.
func ForFormat(f document.Format, opts Options) Parser {
	switch f {
	case document.FormatMarkdown:
		return &MarkdownParser{}
	case document.FormatCSV:
		return &CSVParser{}
	case document.FormatHTML:
		return &HTMLParser{}
	case document.FormatPDF:
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}
	case document.FormatDOCX:
		return &DOCXParser{}
	default:
		return &TextParser{}
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	_, ok := document.FormatForFile(filename)
	return ok
}

func parseErr(format string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrParse, format, err)
}
