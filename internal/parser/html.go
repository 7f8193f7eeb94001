package parser

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docredact/internal/document"
)

// HTMLParser handles HTML files. Text is grouped into one block per
// block-level element; script, style and navigation content is dropped.
type HTMLParser struct{}

var skippedTags = map[string]bool{
	"script": true, "style": true, "nav": true, "noscript": true, "template": true,
}

// blockTags start or end a block.
var blockTags = map[string]bool{
	"title": true, "body": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "li": true, "ul": true, "ol": true, "dl": true, "dd": true, "dt": true,
	"table": true, "tr": true, "td": true, "th": true,
	"blockquote": true, "pre": true, "address": true,
	"div": true, "section": true, "article": true, "main": true, "header": true, "footer": true,
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.Content, error) {
	z := html.NewTokenizer(r)

	var (
		blocks []string
		cur    strings.Builder
		skip   int
	)
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			blocks = append(blocks, t)
		}
		cur.Reset()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, parseErr("html", err)
			}
			flush()
			return document.NewStructured(blocks), nil

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case skippedTags[tag]:
				skip++
			case tag == "br":
				cur.WriteByte('\n')
			case blockTags[tag]:
				flush()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case skippedTags[tag]:
				if skip > 0 {
					skip--
				}
			case blockTags[tag]:
				flush()
			}

		case html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				cur.WriteByte('\n')
			}

		case html.TextToken:
			if skip == 0 {
				cur.Write(z.Text())
			}
		}
	}
}
