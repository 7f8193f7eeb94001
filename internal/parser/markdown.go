package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docredact/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownParser handles Markdown files using goldmark. Each top-level
// block (heading, paragraph, list, code block) becomes one content block.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Content, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr("md", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t := strings.TrimSpace(blockText(n, src)); t != "" {
			blocks = append(blocks, t)
		}
	}
	return document.NewStructured(blocks), nil
}

// inlineText resolves backslash escapes and character references the way
// a renderer shows them.
func inlineText(raw []byte) []byte {
	return util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(raw)))
}

// blockText gets the visible text of a goldmark AST node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer

	// Code and raw HTML blocks carry their text as lines, not inline children.
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimRight(buf.String(), "\n")
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(inlineText(t.Segment.Value(src)))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(src))
		default:
			s := blockText(c, src)
			if c.Type() == ast.TypeBlock {
				s = strings.TrimRight(s, "\n")
				if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
					buf.WriteByte('\n')
				}
			}
			buf.WriteString(s)
		}
	}
	return buf.String()
}
