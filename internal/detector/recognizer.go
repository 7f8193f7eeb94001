package detector

import "regexp"

// Recognizer finds the occurrences of one PII category in text. Spans must
// not overlap each other.
type Recognizer interface {
	Category() Category
	Confidence() Confidence
	Scan(text string) ([]Span, error)
}

// Pattern sources for the regex recognizers. All are RE2 and run in linear time.
// \b and \d are ASCII-only: a non-ASCII letter next to a match does not
// block it, and non-ASCII digits never match.
const (
	emailPattern         = `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`
	nationalIDPattern    = `\b\d{3}-?\d{2}-?\d{4}\b`
	paymentCardPattern   = `\b(?:\d{4}[-\s]?){3}\d{4}\b`
	datePattern          = `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`
	ibanPattern          = `\b[A-Z]{2}\d{2}[A-Z0-9]{4}\d{7}[A-Z0-9]{0,16}\b`
	streetAddressPattern = `(?i)\b\d+\s+[a-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`
)

// RegexRecognizer matches a single compiled pattern.
type RegexRecognizer struct {
	category   Category
	confidence Confidence
	re         *regexp.Regexp
}

// NewRegexRecognizer compiles pattern for category.
func NewRegexRecognizer(category Category, confidence Confidence, pattern string) (*RegexRecognizer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexRecognizer{category: category, confidence: confidence, re: re}, nil
}

func mustRegex(category Category, confidence Confidence, pattern string) *RegexRecognizer {
	r, err := NewRegexRecognizer(category, confidence, pattern)
	if err != nil {
		panic("detector: compile " + string(category) + ": " + err.Error())
	}
	return r
}

func (r *RegexRecognizer) Category() Category     { return r.category }
func (r *RegexRecognizer) Confidence() Confidence { return r.confidence }

func (r *RegexRecognizer) Scan(text string) ([]Span, error) {
	locs := r.re.FindAllStringIndex(text, -1)
	spans := make([]Span, len(locs))
	for i, loc := range locs {
		spans[i] = Span{Start: loc[0], End: loc[1]}
	}
	return spans, nil
}

var (
	emailRecognizer         = mustRegex(CategoryEmail, ConfidenceHigh, emailPattern)
	nationalIDRecognizer    = mustRegex(CategoryNationalID, ConfidenceHigh, nationalIDPattern)
	paymentCardRecognizer   = mustRegex(CategoryPaymentCard, ConfidenceMedium, paymentCardPattern)
	dateRecognizer          = mustRegex(CategoryDate, ConfidenceLow, datePattern)
	ibanRecognizer          = mustRegex(CategoryIBAN, ConfidenceHigh, ibanPattern)
	streetAddressRecognizer = mustRegex(CategoryStreetAddress, ConfidenceMedium, streetAddressPattern)
)

// DefaultRecognizers returns the built-in recognizer set in detection order.
// phoneRegion is the fallback region for numbers without a country code.
func DefaultRecognizers(phoneRegion string) []Recognizer {
	return []Recognizer{
		emailRecognizer,
		NewPhoneRecognizer(phoneRegion),
		nationalIDRecognizer,
		paymentCardRecognizer,
		dateRecognizer,
		ibanRecognizer,
		streetAddressRecognizer,
	}
}
