package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	registered := make(map[string]bool)
	for _, c := range NewRootCmd().Commands() {
		registered[c.Name()] = true
	}
	assert.True(t, registered["detect"])
	assert.True(t, registered["redact"])
}

func TestDetect_JSON(t *testing.T) {
	path := writeFile(t, "notes.txt", "Mail jane@example.com, SSN 123-45-6789, born 1/2/1990")

	out, err := run(t, "detect", path)
	require.NoError(t, err)

	var report struct {
		DocumentType string `json:"document_type"`
		PIIItems     []struct {
			Category string `json:"category"`
			Text     string `json:"matched_text"`
			Start    int    `json:"start"`
		} `json:"pii_items"`
		Summary map[string]int `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "txt", report.DocumentType)
	require.Len(t, report.PIIItems, 3)
	assert.Equal(t, "jane@example.com", report.PIIItems[0].Text)
	assert.Equal(t, 5, report.PIIItems[0].Start)
	assert.Equal(t, map[string]int{"email": 1, "national_id": 1, "date": 1}, report.Summary)
}

func TestDetect_YAMLWithFilters(t *testing.T) {
	path := writeFile(t, "notes.md", "# Contact\n\nMail jane@example.com, SSN 123-45-6789, born 1/2/1990\n")

	out, err := run(t, "detect", path, "--format", "yaml", "--category", "email,date", "--min-confidence", "medium")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	items, ok := report["pii_items"].([]any)
	require.True(t, ok, out)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "email", item["category"])
	assert.Equal(t, "high", item["confidence"])
}

func TestDetect_Errors(t *testing.T) {
	path := writeFile(t, "notes.txt", "x")
	tests := [][]string{
		{"detect"},
		{"detect", path, "--format", "xml"},
		{"detect", path, "--category", "shoe_size"},
		{"detect", path, "--min-confidence", "certain"},
		{"detect", writeFile(t, "a.exe", "x")},
		{"detect", filepath.Join(t.TempDir(), "missing.txt")},
	}
	for _, args := range tests {
		_, err := run(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestRedact_LiteralsToFile(t *testing.T) {
	path := writeFile(t, "notes.txt", "aaa and jane@example.com")

	out, err := run(t, "redact", path, "-l", "aa", "--literal", "jane@example.com")
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(path), "notes_redacted.txt")
	assert.Equal(t, want+"\n", out)
	got, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]a and [REDACTED]", string(got))
}

func TestRedact_AutoToStdout(t *testing.T) {
	path := writeFile(t, "notes.txt", "Call 555-123-4567 on 1/2/1990")

	out, err := run(t, "redact", path, "--auto", "high", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "Call [REDACTED] on 1/2/1990", out)

	out, err = run(t, "redact", path, "--auto", "low", "--mode", "atomic", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "Call [REDACTED] on [REDACTED]", out)
}

func TestRedact_Errors(t *testing.T) {
	path := writeFile(t, "notes.txt", "nothing here")
	tests := [][]string{
		{"redact", path},
		{"redact", path, "-l", "x", "--mode", "fuzzy"},
		{"redact", path, "--auto", "certain"},
	}
	for _, args := range tests {
		_, err := run(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "detect", writeFile(t, "a.txt", "x"))
	assert.Error(t, err)
}
