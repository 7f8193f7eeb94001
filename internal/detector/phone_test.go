package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanPhones(t *testing.T, region, text string) []string {
	t.Helper()
	spans, err := NewPhoneRecognizer(region).Scan(text)
	require.NoError(t, err)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp.Start:sp.End]
	}
	return out
}

func TestPhoneRecognizer(t *testing.T) {
	tests := []struct {
		name   string
		region string
		text   string
		want   []string
	}{
		{"dashed US", "", "call 555-123-4567 now", []string{"555-123-4567"}},
		{"parenthesised area code", "", "tel (415) 555-2671", []string{"(415) 555-2671"}},
		{"dotted", "", "415.555.2671", []string{"415.555.2671"}},
		{"international", "", "London +44 20 7946 0958", []string{"+44 20 7946 0958"}},
		{"two numbers", "", "555-123-4567, 415-555-2671", []string{"555-123-4567", "415-555-2671"}},
		{"too short", "", "room 12-34", []string{}},
		{"local only", "", "ext 555-1234", []string{}},
		{"glued to letters", "", "order A5551234567", []string{}},
		{"ssn length", "", "123-45-6789", []string{}},
		{"other region", "GB", "020 7946 0958", []string{"020 7946 0958"}},
		{"one per line", "", "555-123-4567\n555-987-6543", []string{"555-123-4567", "555-987-6543"}},
		{"digits on next line", "", "Phone: 555-123-4567\n12 Main Street", []string{"555-123-4567"}},
		{"crlf", "", "555-123-4567\r\n415-555-2671\r\n", []string{"555-123-4567", "415-555-2671"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanPhones(t, tt.region, tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhoneRecognizer_TrimsTrailingGroups(t *testing.T) {
	// A year directly after a number is pulled into the candidate run.
	got := scanPhones(t, "US", "555-123-4567 2024")
	assert.Equal(t, []string{"555-123-4567"}, got)
}

func TestNewPhoneRecognizer_NormalizesRegion(t *testing.T) {
	assert.Equal(t, "GB", NewPhoneRecognizer(" gb ").region)
	assert.Equal(t, DefaultPhoneRegion, NewPhoneRecognizer("").region)
}

func TestRuneIndex(t *testing.T) {
	idx := newRuneIndex("abc")
	assert.Equal(t, 2, idx.offset(2))

	text := "é€x"
	idx = newRuneIndex(text)
	assert.Equal(t, 0, idx.offset(0))
	assert.Equal(t, 1, idx.offset(2))
	assert.Equal(t, 2, idx.offset(5))
	assert.Equal(t, 3, idx.offset(len(text)))
}
