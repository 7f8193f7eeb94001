// Package document describes supported upload formats and the text
// extracted from them.
package document

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported upload type by its extension.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// Formats lists every supported format in a stable order.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatHTML, FormatPDF, FormatDOCX}

// FormatForFile maps a filename to its format. ok is false for unsupported extensions.
func FormatForFile(filename string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ParseFormat(ext)
}

// ParseFormat maps an extension (without the dot) to a format.
func ParseFormat(ext string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt":
		return FormatText, true
	case "md", "markdown":
		return FormatMarkdown, true
	case "csv":
		return FormatCSV, true
	case "html", "htm":
		return FormatHTML, true
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDOCX, true
	}
	return "", false
}

// Ext returns the canonical extension including the leading dot.
func (f Format) Ext() string { return "." + string(f) }

// Structured reports whether content of this format is redacted block by block.
func (f Format) Structured() bool {
	return f == FormatDOCX || f == FormatPDF
}

// OutputFormat is the format a redacted copy is written in. PDF output is plain text.
func (f Format) OutputFormat() Format {
	if f == FormatPDF {
		return FormatText
	}
	return f
}

// ContentType is the MIME type used when serving a file of this format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Content is the extracted text of one uploaded file.
type Content struct {
	FullText   string   `json:"full_text"`
	Blocks     []string `json:"blocks,omitempty"`
	Structured bool     `json:"-"`
}

// NewPlain wraps unstructured text. The single block equals the full text.
func NewPlain(text string) *Content {
	return &Content{FullText: text, Blocks: []string{text}}
}

// NewStructured builds content from ordered blocks joined with newlines.
func NewStructured(blocks []string) *Content {
	b := make([]string, len(blocks))
	copy(b, blocks)
	return &Content{
		FullText:   strings.Join(b, "\n"),
		Blocks:     b,
		Structured: true,
	}
}

// WithBlocks returns a new content of the same shape built from blocks.
func (c *Content) WithBlocks(blocks []string) *Content {
	if c.Structured {
		return NewStructured(blocks)
	}
	return NewPlain(strings.Join(blocks, "\n"))
}
