// Package redact replaces selected literal strings with a fixed sentinel.
//
// Two variants exist. Text treats the document as one string; Blocks works
// paragraph by paragraph so a structured document keeps its shape. Both
// default to sequential replacement, where each literal is applied to the
// output of the previous one. ModeAtomic computes every replacement against
// the original text in a single pass instead.
package redact

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docredact/internal/document"
)

// Sentinel replaces every redacted occurrence.
const Sentinel = "[REDACTED]"

// Mode selects how multiple literals interact.
type Mode int

const (
	// ModeSequential replaces literals one after another on the working
	// text. A later literal may match text produced by an earlier
	// replacement, including the sentinel itself.
	ModeSequential Mode = iota
	// ModeAtomic finds all occurrences in the original text and replaces
	// them in one pass. At a given position the longest literal wins.
	ModeAtomic
)

func (m Mode) String() string {
	switch m {
	case ModeAtomic:
		return "atomic"
	default:
		return "sequential"
	}
}

// ParseMode accepts "sequential", "atomic" or "" (sequential).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return ModeSequential, nil
	case "atomic":
		return ModeAtomic, nil
	}
	return ModeSequential, fmt.Errorf("unknown redaction mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Text applies literals to text in order. Every occurrence of each literal
// in the current working text is replaced with Sentinel. Literals that do
// not occur are ignored; empty literals are skipped.
func Text(text string, literals []string) string {
	for _, lit := range literals {
		if lit == "" {
			continue
		}
		text = strings.ReplaceAll(text, lit, Sentinel)
	}
	return text
}

// Blocks applies literals to each block independently and returns a new
// slice of the same length and order. Blocks are never merged, split or
// dropped.
func Blocks(blocks []string, literals []string) []string {
	return mapBlocks(blocks, func(b string) string { return Text(b, literals) })
}

// TextMode dispatches to the variant selected by mode.
func TextMode(text string, literals []string, mode Mode) string {
	if mode == ModeAtomic {
		return atomic(text, literals)
	}
	return Text(text, literals)
}

// BlocksMode is Blocks with an explicit mode.
func BlocksMode(blocks []string, literals []string, mode Mode) []string {
	return mapBlocks(blocks, func(b string) string { return TextMode(b, literals, mode) })
}

// Content redacts c and returns a new value. Structured content is
// redacted per block and its full text rebuilt from the result; plain
// content is redacted as a whole.
func Content(c *document.Content, literals []string, mode Mode) *document.Content {
	if c == nil {
		return nil
	}
	if !c.Structured {
		return document.NewPlain(TextMode(c.FullText, literals, mode))
	}
	return document.NewStructured(BlocksMode(c.Blocks, literals, mode))
}

func mapBlocks(blocks []string, fn func(string) string) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = fn(b)
	}
	return out
}
