package parser

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docredact/internal/document"
)

// TextParser handles plain text files. The text is kept verbatim so that
// match offsets and literal redaction line up with the stored original.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Content, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr("txt", err)
	}
	if !utf8.Valid(data) {
		return nil, parseErr("txt", errInvalidUTF8)
	}
	// A leading byte order mark is not part of the text.
	text := strings.TrimPrefix(string(data), "\ufeff")
	return document.NewPlain(text), nil
}
