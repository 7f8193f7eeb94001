// Package rewrite produces the redacted copy of a stored original.
package rewrite

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docredact/internal/document"
	"github.com/dgallion1/docredact/internal/parser"
	"github.com/dgallion1/docredact/internal/redact"
	"github.com/fumiama/go-docx"
)

// Rewriter applies redaction requests to original file bytes.
type Rewriter struct {
	Parsers parser.Options
}

// Apply rewrites src with default parser options.
func Apply(f document.Format, src []byte, literals []string, mode redact.Mode) ([]byte, document.Format, error) {
	return (&Rewriter{}).Apply(f, src, literals, mode)
}

// Apply returns the redacted file and its format. Text formats are redacted
// on the raw source so markup survives; markdown, CSV and HTML fall back to
// plain text when the rewritten source does not extract to the redacted
// text, which happens when markup encodes a literal differently (entities,
// escapes, quoting). DOCX is redacted paragraph by paragraph and re-packed.
// PDF pages are re-extracted and written as plain text.
func (rw *Rewriter) Apply(f document.Format, src []byte, literals []string, mode redact.Mode) ([]byte, document.Format, error) {
	switch f {
	case document.FormatDOCX:
		out, err := rewriteDOCX(src, literals, mode)
		return out, f, err
	case document.FormatPDF:
		out, err := rw.rewritePDF(src, literals, mode)
		return out, f.OutputFormat(), err
	case document.FormatText:
		return []byte(redact.TextMode(string(src), literals, mode)), f, nil
	case document.FormatMarkdown, document.FormatCSV, document.FormatHTML:
		return rw.rewriteMarkup(f, src, literals, mode)
	}
	return nil, "", fmt.Errorf("rewrite: unsupported format %q", f)
}

func (rw *Rewriter) rewriteMarkup(f document.Format, src []byte, literals []string, mode redact.Mode) ([]byte, document.Format, error) {
	p := parser.ForFormat(f, rw.Parsers)
	original, err := p.Parse(bytes.NewReader(src), "original"+f.Ext())
	if err != nil {
		return nil, "", err
	}
	want := redact.Content(original, literals, mode)

	out := []byte(redact.TextMode(string(src), literals, mode))
	got, err := p.Parse(bytes.NewReader(out), "redacted"+f.Ext())
	if err == nil && got.FullText == want.FullText {
		return out, f, nil
	}
	return []byte(want.FullText), document.FormatText, nil
}

func (rw *Rewriter) rewritePDF(src []byte, literals []string, mode redact.Mode) ([]byte, error) {
	content, err := parser.ForFormat(document.FormatPDF, rw.Parsers).Parse(bytes.NewReader(src), "original.pdf")
	if err != nil {
		return nil, err
	}
	pages := redact.BlocksMode(content.Blocks, literals, mode)
	return []byte(strings.Join(pages, "\n\n")), nil
}

func rewriteDOCX(src []byte, literals []string, mode redact.Mode) ([]byte, error) {
	doc, err := parser.OpenDOCX(src)
	if err != nil {
		return nil, err
	}

	paras := parser.DOCXParagraphs(doc)
	before := make([]string, len(paras))
	for i, p := range paras {
		before[i] = parser.DOCXParagraphText(p)
	}
	after := redact.BlocksMode(before, literals, mode)
	for i, p := range paras {
		if after[i] != before[i] {
			setParagraphText(p, after[i])
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

// setParagraphText replaces all text-bearing runs of p with a single run
// holding text. The run inherits the formatting of the first original run;
// paragraph properties and non-run children are kept.
func setParagraphText(p *docx.Paragraph, text string) {
	var props *docx.RunProperties
	kept := p.Children[:0:0]
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			if props == nil {
				props = c.RunProperties
			}
		case *docx.Hyperlink:
			if props == nil {
				props = c.Run.RunProperties
			}
		default:
			kept = append(kept, child)
		}
	}
	p.Children = kept

	run := p.AddText(text)
	if props != nil {
		run.RunProperties = props
	}
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
}
