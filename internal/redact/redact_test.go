package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docredact/internal/document"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		literals []string
		want     string
	}{
		{"replace all non-overlapping from left", "aaa", []string{"aa"}, "[REDACTED]a"},
		{"every occurrence", "a@b.com wrote to a@b.com", []string{"a@b.com"}, "[REDACTED] wrote to [REDACTED]"},
		{"absent literal is a no-op", "nothing here", []string{"555-123-4567"}, "nothing here"},
		{"empty request", "keep me", nil, "keep me"},
		{"empty literal skipped", "keep me", []string{""}, "keep me"},
		{"order matters", "jane.doe@example.com", []string{"jane.doe@example.com", "jane"}, "[REDACTED]"},
		{"later literal sees earlier output", "id 12345", []string{"12345", "RED"}, "id [[REDACTED]ACTED]"},
		{"substring elsewhere is redacted too", "call 555 or room 555", []string{"555"}, "call [REDACTED] or room [REDACTED]"},
		{"unicode", "Grüße, Jürgen", []string{"Jürgen"}, "Grüße, [REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.text, tt.literals))
		})
	}
}

func TestBlocks(t *testing.T) {
	in := []string{"Email: a@b.com", "No PII here"}
	got := Blocks(in, []string{"a@b.com"})

	assert.Equal(t, []string{"Email: [REDACTED]", "No PII here"}, got)
	assert.Equal(t, []string{"Email: a@b.com", "No PII here"}, in, "input must not be modified")
}

func TestBlocks_PreservesShape(t *testing.T) {
	in := []string{"", "a@b.com", "", "x a@b.com y a@b.com"}
	got := Blocks(in, []string{"a@b.com", "missing"})
	require.Len(t, got, len(in))
	assert.Equal(t, []string{"", "[REDACTED]", "", "x [REDACTED] y [REDACTED]"}, got)

	assert.Empty(t, Blocks(nil, []string{"x"}))
}

// A literal spanning two blocks matches neither block.
func TestBlocks_DoesNotCrossBoundaries(t *testing.T) {
	got := Blocks([]string{"Jane", "Doe"}, []string{"Jane\nDoe"})
	assert.Equal(t, []string{"Jane", "Doe"}, got)
}

func TestAtomic(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		literals []string
		want     string
	}{
		{"same as sequential for one literal", "aaa", []string{"aa"}, "[REDACTED]a"},
		{"sentinel text is not rescanned", "id 12345", []string{"12345", "RED"}, "id [REDACTED]"},
		{"longest wins at a position", "jane.doe@example.com", []string{"jane", "jane.doe@example.com"}, "[REDACTED]"},
		{"overlapping literals take leftmost", "abcd", []string{"cd", "abc"}, "[REDACTED]d"},
		{"duplicates and empties ignored", "x y x", []string{"x", "", "x"}, "[REDACTED] y [REDACTED]"},
		{"no literals", "text", nil, "text"},
		{"no occurrence", "text", []string{"zzz"}, "text"},
		{"multibyte", "Jürgen und Jürgen", []string{"Jürgen"}, "[REDACTED] und [REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextMode(tt.text, tt.literals, ModeAtomic))
		})
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":           ModeSequential,
		"sequential": ModeSequential,
		"ATOMIC":     ModeAtomic,
		" atomic ":   ModeAtomic,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("fuzzy")
	assert.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("atomic")))
	assert.Equal(t, ModeAtomic, m)
	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "atomic", string(b))
}

func TestContent(t *testing.T) {
	structured := document.NewStructured([]string{"Email: a@b.com", "No PII here"})
	out := Content(structured, []string{"a@b.com"}, ModeSequential)
	require.NotNil(t, out)
	assert.True(t, out.Structured)
	assert.Equal(t, []string{"Email: [REDACTED]", "No PII here"}, out.Blocks)
	assert.Equal(t, "Email: [REDACTED]\nNo PII here", out.FullText)
	assert.Equal(t, "Email: a@b.com\nNo PII here", structured.FullText, "original content untouched")

	plain := document.NewPlain("aaa")
	out = Content(plain, []string{"aa"}, ModeSequential)
	assert.False(t, out.Structured)
	assert.Equal(t, "[REDACTED]a", out.FullText)
	assert.Equal(t, []string{"[REDACTED]a"}, out.Blocks)

	assert.Nil(t, Content(nil, []string{"x"}, ModeAtomic))
}
