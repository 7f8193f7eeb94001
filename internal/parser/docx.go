package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docredact/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Every top-level body paragraph becomes a
// block, empty ones included, so block i always addresses paragraph i.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*document.Content, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr("docx", err)
	}
	doc, err := OpenDOCX(data)
	if err != nil {
		return nil, err
	}

	paras := DOCXParagraphs(doc)
	blocks := make([]string, len(paras))
	for i, para := range paras {
		blocks[i] = DOCXParagraphText(para)
	}
	return document.NewStructured(blocks), nil
}

// OpenDOCX parses an in-memory .docx archive. The returned document keeps a
// reference to data for re-packing.
func OpenDOCX(data []byte) (doc *docx.Docx, err error) {
	// go-docx panics on some malformed XML instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, parseErr("docx", fmt.Errorf("panic: %v", r))
		}
	}()

	doc, err = docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, parseErr("docx", err)
	}
	return doc, nil
}

// DOCXParagraphs returns the top-level body paragraphs in document order.
func DOCXParagraphs(doc *docx.Docx) []*docx.Paragraph {
	var paras []*docx.Paragraph
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			paras = append(paras, para)
		}
	}
	return paras
}

// DOCXParagraphText returns the visible text of a paragraph: run text,
// tabs, and line breaks, including hyperlink runs.
func DOCXParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRunText(&buf, c)
		case *docx.Hyperlink:
			writeRunText(&buf, &c.Run)
		}
	}
	return buf.String()
}

func writeRunText(buf *strings.Builder, run *docx.Run) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
}
