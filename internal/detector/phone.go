package detector

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers written without a country code.
// Without a region hint libphonenumber rejects every national number, so
// one is always supplied.
const DefaultPhoneRegion = "US"

// phoneCandidate finds phone-shaped runs: an optional +country prefix, an
// optional parenthesised area code, then digit groups with single separators.
// Separators never include line breaks, so a number does not run into the
// next line.
var phoneCandidate = regexp.MustCompile(`(?:\+\d{1,3}[ \t.-]?)?(?:\(\d{1,4}\)[ \t.-]?)?\d{1,4}(?:[ \t.-]?\d{2,4}){1,5}`)

// PhoneRecognizer validates phone-shaped candidates against the
// libphonenumber grammar. Numbers starting with + are parsed
// internationally, all others against the fallback region, which defaults
// to DefaultPhoneRegion rather than leaving national numbers unparsed. A
// candidate is accepted when its length is possible for that region.
type PhoneRecognizer struct {
	region string
}

func NewPhoneRecognizer(region string) *PhoneRecognizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultPhoneRegion
	}
	return &PhoneRecognizer{region: region}
}

func (r *PhoneRecognizer) Category() Category     { return CategoryPhone }
func (r *PhoneRecognizer) Confidence() Confidence { return ConfidenceHigh }

func (r *PhoneRecognizer) Scan(text string) ([]Span, error) {
	var spans []Span
	for _, loc := range phoneCandidate.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && !isBoundary(text, start, start) {
			continue
		}
		// Long runs may swallow trailing numbers; retry shorter prefixes
		// cut at separators.
		for end > start {
			if isBoundary(text, start, end) && r.possible(text[start:end]) {
				spans = append(spans, Span{Start: start, End: end})
				break
			}
			end = lastSeparator(text, start, end)
		}
	}
	return spans, nil
}

func (r *PhoneRecognizer) possible(candidate string) bool {
	digits := countDigits(candidate)
	if digits < 7 || digits > 15 {
		return false
	}
	num, err := phonenumbers.Parse(candidate, r.region)
	if err != nil {
		return false
	}
	// Local-only lengths (seven digit US numbers) collide with too many
	// ordinary digit runs, so only full numbers are accepted.
	return phonenumbers.IsPossibleNumberWithReason(num) == phonenumbers.IS_POSSIBLE
}

// lastSeparator returns the offset of the last separator inside
// text[start:end] with a digit before it, or start when there is none.
func lastSeparator(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		switch text[i] {
		case ' ', '\t', '.', '-':
			if text[i-1] >= '0' && text[i-1] <= '9' {
				return i
			}
		}
	}
	return start
}

// isBoundary reports whether text[start:end] is not glued to surrounding
// letters or digits. With start == end only the leading edge is checked.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			return false
		}
	}
	if end > start && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(next) || unicode.IsDigit(next) {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
